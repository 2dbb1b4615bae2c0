package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/transfer"
)

func newTestStore(t *testing.T) *PersistentStore {
	t.Helper()
	s, err := NewPersistentStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testJob(id string) *domain.DownloadJob {
	return &domain.DownloadJob{
		ID:        id,
		SourceURL: "https://example.com/watch?v=" + id,
		Status:    domain.StatusPending,
		Bucket:    "vids",
		PartSize:  5242880,
		CreatedAt: time.Now(),
	}
}

func TestSaveAndGetJob(t *testing.T) {
	s := newTestStore(t)

	job := testJob("job1")
	job.Video = &domain.VideoMetadata{VideoID: "abc123", Title: "A Title", Ext: "mp4"}
	require.NoError(t, s.SaveJob(job))

	got, err := s.GetJob("job1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.SourceURL, got.SourceURL)
	assert.Equal(t, domain.StatusPending, got.Status)
	require.NotNil(t, got.Video)
	assert.Equal(t, "abc123", got.Video.VideoID)
}

func TestGetJobNotFound(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetJob("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetDueJobsHonorsRetryWindow(t *testing.T) {
	s := newTestStore(t)
	now := time.Now()

	ready := testJob("a-ready")

	waitingPast := testJob("b-past")
	waitingPast.Status = domain.StatusWaitingRetry
	waitingPast.RetryAfter = now.Add(-time.Minute)

	waitingFuture := testJob("c-future")
	waitingFuture.Status = domain.StatusWaitingRetry
	waitingFuture.RetryAfter = now.Add(time.Hour)

	failed := testJob("d-failed")
	failed.Status = domain.StatusFailed

	for _, j := range []*domain.DownloadJob{ready, waitingPast, waitingFuture, failed} {
		require.NoError(t, s.SaveJob(j))
	}

	due, err := s.GetDueJobs(now)
	require.NoError(t, err)

	ids := make([]string, 0, len(due))
	for _, j := range due {
		ids = append(ids, j.ID)
	}
	assert.Equal(t, []string{"a-ready", "b-past"}, ids)
}

func TestContinuationRoundTrip(t *testing.T) {
	s := newTestStore(t)

	job := testJob("job1")
	require.NoError(t, s.SaveJob(job))

	cont := transfer.NewContinuation("job1", "http://cdn/v.mp4", "vids", "videos/v.mp4", "upl-1", 82784319, 5242880)
	cont.PartTags = []transfer.PartTag{{PartNumber: 1, ETag: "e1"}}
	require.NoError(t, s.SaveContinuation("job1", cont))

	got, err := s.GetContinuation("job1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cont.RangeEnd, got.RangeEnd)
	assert.Equal(t, cont.PartTags, got.PartTags)

	// Updating the job must not clobber the continuation.
	job.Status = domain.StatusTransferring
	require.NoError(t, s.SaveJob(job))
	got, err = s.GetContinuation("job1")
	require.NoError(t, err)
	require.NotNil(t, got)

	require.NoError(t, s.ClearContinuation("job1"))
	got, err = s.GetContinuation("job1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
