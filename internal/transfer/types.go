package transfer

import "context"

// PartTag pairs a part number with the identifier the store handed back for
// it. The finalizer needs the full ordered list to close the transfer.
type PartTag struct {
	PartNumber int    `json:"part_number"`
	ETag       string `json:"etag"`
}

// Continuation is the complete state of an in-flight chunked transfer. It is
// plain data: one step consumes it, produces the next one, and the engine
// persists it in between, so a crashed process resumes from the last
// persisted value.
type Continuation struct {
	SourceURL string `json:"source_url"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	UploadID  string `json:"upload_id"`
	JobID     string `json:"job_id"`

	PartNumber     int   `json:"part_number"` // 1-indexed
	RangeStart     int64 `json:"range_start"` // inclusive
	RangeEnd       int64 `json:"range_end"`   // inclusive
	PartSize       int64 `json:"part_size"`
	TotalBytes     int64 `json:"total_bytes"`
	BytesRemaining int64 `json:"bytes_remaining"`

	PartTags []PartTag `json:"part_tags"`
}

// Completion is the terminal result of a transfer: everything the finalizer
// needs to close the multipart upload and record the outcome.
type Completion struct {
	Bucket   string    `json:"bucket"`
	Key      string    `json:"key"`
	UploadID string    `json:"upload_id"`
	JobID    string    `json:"job_id"`
	PartTags []PartTag `json:"part_tags"`
}

// NewContinuation builds the state for the first step of a job.
func NewContinuation(jobID, sourceURL, bucket, key, uploadID string, totalBytes, partSize int64) *Continuation {
	start, end := NextRange(totalBytes, partSize, 0)
	return &Continuation{
		SourceURL:      sourceURL,
		Bucket:         bucket,
		Key:            key,
		UploadID:       uploadID,
		JobID:          jobID,
		PartNumber:     1,
		RangeStart:     start,
		RangeEnd:       end,
		PartSize:       partSize,
		TotalBytes:     totalBytes,
		BytesRemaining: totalBytes,
	}
}

// RangeFetcher pulls one byte range from the source. Implementations must
// support partial-content semantics; the returned length is whatever the
// source actually reported, which may differ from the requested range.
type RangeFetcher interface {
	FetchRange(ctx context.Context, url string, start, end int64) (payload []byte, reportedLength int64, err error)
}

// PartStore is the slice of the object store the coordinator needs: send one
// numbered part of an open multipart transfer. Re-sending the same part
// number replaces the earlier part, which is what makes steps safely
// re-invocable.
type PartStore interface {
	SendPart(ctx context.Context, bucket, key, uploadID string, partNumber int, body []byte) (etag string, err error)
	// TransientErr reports whether a SendPart failure is a brief transport
	// hiccup worth retrying inline.
	TransientErr(err error) bool
}
