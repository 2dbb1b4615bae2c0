package transfer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrierRecoversFromTransientFailures(t *testing.T) {
	store := &fakePartStore{failuresLeft: 2, transient: true}
	r := NewPartRetrier(store)

	etag, err := r.Send(context.Background(), "b", "k", "u", 1, []byte("data"))

	require.NoError(t, err)
	assert.Equal(t, "etag-1", etag)
	assert.Len(t, store.sent, 1)
}

func TestRetrierGivesUpAfterThreeAttempts(t *testing.T) {
	store := &fakePartStore{failuresLeft: 3, transient: true}
	r := NewPartRetrier(store)

	_, err := r.Send(context.Background(), "b", "k", "u", 4, []byte("data"))

	require.Error(t, err)
	assert.ErrorIs(t, err, errFakeStore)
	assert.Contains(t, err.Error(), "part 4 failed after 3 attempts")
	assert.Empty(t, store.sent)
}

func TestRetrierDoesNotRetryNonTransient(t *testing.T) {
	store := &fakePartStore{failuresLeft: 3, transient: false}
	r := NewPartRetrier(store)

	_, err := r.Send(context.Background(), "b", "k", "u", 1, []byte("data"))

	require.ErrorIs(t, err, errFakeStore)
	// Only one attempt: two injected failures remain untouched.
	assert.Equal(t, 2, store.failuresLeft)
}
