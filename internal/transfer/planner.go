package transfer

// NextRange computes the inclusive byte range of the next part given how
// many bytes have already been consumed. The first part starts at 0; the
// final part is whatever is left, so a job of totalBytes T and part size P
// always yields ceil(T/P) parts and never a range past totalBytes-1.
//
// Pure arithmetic, no validation: partSize <= 0 or totalBytes < 0 is a bug
// in the caller, not a condition handled here.
func NextRange(totalBytes, partSize, bytesSent int64) (start, end int64) {
	start = bytesSent
	end = start + partSize
	if end > totalBytes {
		end = totalBytes
	}
	return start, end - 1
}

// TotalParts is the number of parts a job of the given size splits into.
func TotalParts(totalBytes, partSize int64) int64 {
	if totalBytes == 0 {
		return 0
	}
	return (totalBytes + partSize - 1) / partSize
}
