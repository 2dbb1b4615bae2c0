package transfer

import (
	"context"
	"fmt"
)

// maxSendAttempts bounds the inline retry of a single part send. This is
// deliberately separate from the job-level retry policy: it covers a brief
// transport hiccup mid-part, nothing more.
const maxSendAttempts = 3

// PartRetrier wraps a PartStore send with a small bounded retry for
// store-reported transient failures. Non-transient failures surface
// immediately.
type PartRetrier struct {
	store PartStore
}

func NewPartRetrier(store PartStore) *PartRetrier {
	return &PartRetrier{store: store}
}

// Send uploads one numbered part, retrying transient failures back to back
// up to maxSendAttempts total attempts, then giving up for this part.
func (r *PartRetrier) Send(ctx context.Context, bucket, key, uploadID string, partNumber int, body []byte) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		etag, err := r.store.SendPart(ctx, bucket, key, uploadID, partNumber, body)
		if err == nil {
			return etag, nil
		}

		if !r.store.TransientErr(err) {
			return "", err
		}
		lastErr = err

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("part %d failed after %d attempts: %w", partNumber, maxSendAttempts, lastErr)
}
