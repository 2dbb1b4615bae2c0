package transfer

import (
	"context"
	"fmt"
)

// Coordinator drives one step of the chunked acquisition/upload loop: fetch
// the current range, push it as a numbered part, then hand back either the
// state for the next step or the terminal completion record.
//
// A step never mutates its input. Re-running the same continuation (the
// at-least-once delivery case) re-fetches the same range and re-sends the
// same part number, which the store treats as a replace.
type Coordinator struct {
	fetcher RangeFetcher
	retrier *PartRetrier
}

func NewCoordinator(fetcher RangeFetcher, store PartStore) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		retrier: NewPartRetrier(store),
	}
}

// Advance performs one fetch-then-send step. Exactly one of the two returns
// is non-nil on success; any failure propagates unchanged and leaves the
// caller free to re-invoke with the same continuation.
func (c *Coordinator) Advance(ctx context.Context, cont *Continuation) (*Continuation, *Completion, error) {
	payload, reported, err := c.fetcher.FetchRange(ctx, cont.SourceURL, cont.RangeStart, cont.RangeEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch range %d-%d: %w", cont.RangeStart, cont.RangeEnd, err)
	}

	// The source's reported length is authoritative for the part send, in
	// case it returned more or less than the requested window.
	if reported > 0 && reported < int64(len(payload)) {
		payload = payload[:reported]
	}

	etag, err := c.retrier.Send(ctx, cont.Bucket, cont.Key, cont.UploadID, cont.PartNumber, payload)
	if err != nil {
		return nil, nil, fmt.Errorf("send part %d: %w", cont.PartNumber, err)
	}

	tags := make([]PartTag, len(cont.PartTags), len(cont.PartTags)+1)
	copy(tags, cont.PartTags)
	tags = append(tags, PartTag{PartNumber: cont.PartNumber, ETag: etag})

	remaining := cont.BytesRemaining - cont.PartSize
	if remaining <= 0 {
		return nil, &Completion{
			Bucket:   cont.Bucket,
			Key:      cont.Key,
			UploadID: cont.UploadID,
			JobID:    cont.JobID,
			PartTags: tags,
		}, nil
	}

	nextStart, nextEnd := NextRange(cont.TotalBytes, cont.PartSize, cont.RangeEnd+1)

	next := *cont
	next.PartNumber = cont.PartNumber + 1
	next.RangeStart = nextStart
	next.RangeEnd = nextEnd
	next.BytesRemaining = remaining
	next.PartTags = tags
	return &next, nil, nil
}
