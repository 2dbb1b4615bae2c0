package transfer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drive runs coordinator steps until completion, feeding each emitted
// continuation back in, the way the engine does across invocations.
func drive(t *testing.T, c *Coordinator, cont *Continuation) *Completion {
	t.Helper()
	for steps := 0; steps < 1000; steps++ {
		next, done, err := c.Advance(context.Background(), cont)
		require.NoError(t, err)
		if done != nil {
			return done
		}
		cont = next
	}
	t.Fatal("transfer never completed")
	return nil
}

func TestAdvanceEmitsAllParts(t *testing.T) {
	const totalBytes, partSize = int64(82784319), int64(5242880)

	fetcher := &fakeFetcher{size: totalBytes}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "videos/v1.mp4", "upload-1", totalBytes, partSize)
	done := drive(t, c, cont)

	require.Len(t, done.PartTags, 16)
	assert.Len(t, store.sent, 16)

	// Part numbers are 1-indexed, strictly increasing, no duplicates.
	for i, tag := range done.PartTags {
		assert.Equal(t, i+1, tag.PartNumber)
	}

	// Every byte is sent exactly once.
	var sum int64
	for _, p := range store.sent {
		sum += p.size
	}
	assert.Equal(t, totalBytes, sum)

	// Final requested range ends at the last byte, 0-indexed inclusive.
	last := fetcher.ranges[len(fetcher.ranges)-1]
	assert.Equal(t, totalBytes-1, last[1])

	assert.Equal(t, "upload-1", done.UploadID)
	assert.Equal(t, "job1", done.JobID)
}

func TestAdvanceSourceSmallerThanOnePart(t *testing.T) {
	const totalBytes, partSize = int64(5241880), int64(5242880)

	fetcher := &fakeFetcher{size: totalBytes}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", totalBytes, partSize)
	next, done, err := c.Advance(context.Background(), cont)

	require.NoError(t, err)
	assert.Nil(t, next)
	require.NotNil(t, done)
	assert.Len(t, done.PartTags, 1)
	assert.Equal(t, totalBytes, store.sent[0].size)
}

func TestAdvanceExactMultiple(t *testing.T) {
	const partSize = int64(5242880)
	totalBytes := 2 * partSize

	fetcher := &fakeFetcher{size: totalBytes}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", totalBytes, partSize)
	done := drive(t, c, cont)

	assert.Len(t, done.PartTags, 2)
	assert.Equal(t, partSize, store.sent[0].size)
	assert.Equal(t, partSize, store.sent[1].size)
}

func TestAdvanceBytesRemainingDecreases(t *testing.T) {
	const totalBytes, partSize = int64(82784319), int64(5242880)

	fetcher := &fakeFetcher{size: totalBytes}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", totalBytes, partSize)
	prev := cont.BytesRemaining

	for {
		next, done, err := c.Advance(context.Background(), cont)
		require.NoError(t, err)
		if done != nil {
			break
		}
		assert.Equal(t, prev-partSize, next.BytesRemaining)
		assert.Greater(t, next.BytesRemaining, int64(0))
		prev = next.BytesRemaining
		cont = next
	}
}

func TestAdvanceReplaySendsSamePartNumber(t *testing.T) {
	const totalBytes, partSize = int64(20000000), int64(5242880)

	fetcher := &fakeFetcher{size: totalBytes}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", totalBytes, partSize)

	// Same continuation advanced twice, simulating at-least-once delivery.
	next1, _, err := c.Advance(context.Background(), cont)
	require.NoError(t, err)
	next2, _, err := c.Advance(context.Background(), cont)
	require.NoError(t, err)

	require.Len(t, store.sent, 2)
	assert.Equal(t, store.sent[0].partNumber, store.sent[1].partNumber)
	assert.Equal(t, next1.PartNumber, next2.PartNumber)
	assert.Equal(t, next1.RangeStart, next2.RangeStart)

	// The input continuation was not mutated by either step.
	assert.Equal(t, 1, cont.PartNumber)
	assert.Empty(t, cont.PartTags)
}

func TestAdvanceFetchErrorPropagates(t *testing.T) {
	fetchErr := errors.New("HTTP Error 503: Service Unavailable")
	fetcher := &fakeFetcher{size: 10000000, failErr: fetchErr}
	store := &fakePartStore{}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", 10000000, 5242880)
	next, done, err := c.Advance(context.Background(), cont)

	require.ErrorIs(t, err, fetchErr)
	assert.Nil(t, next)
	assert.Nil(t, done)
	assert.Empty(t, store.sent)
}

func TestAdvanceNonTransientSendFailsImmediately(t *testing.T) {
	fetcher := &fakeFetcher{size: 10000000}
	store := &fakePartStore{failuresLeft: 1, transient: false}
	c := NewCoordinator(fetcher, store)

	cont := NewContinuation("job1", "http://src/video", "vids", "k", "u", 10000000, 5242880)
	_, _, err := c.Advance(context.Background(), cont)

	require.ErrorIs(t, err, errFakeStore)
	assert.Empty(t, store.sent)
}
