package domain

import (
	"time"
)

type JobStatus string

const (
	StatusPending      JobStatus = "pending"
	StatusResolving    JobStatus = "resolving"
	StatusTransferring JobStatus = "transferring"
	StatusWaitingRetry JobStatus = "waiting_retry"
	StatusCompleted    JobStatus = "completed"
	StatusFailed       JobStatus = "failed"
)

// DownloadJob represents the full lifecycle of one acquisition: resolve the
// source, pull it down in byte ranges, push it back out as a multipart
// transfer. It is the record the engine persists between steps.
type DownloadJob struct {
	ID        string    `json:"id"`
	SourceURL string    `json:"source_url"`
	Status    JobStatus `json:"status"`

	Video *VideoMetadata `json:"video,omitempty"`

	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	UploadID string `json:"upload_id,omitempty"`

	TotalBytes    int64 `json:"total_bytes"`
	BytesUploaded int64 `json:"bytes_uploaded"`
	PartSize      int64 `json:"part_size"`

	// Retry bookkeeping, written from classifier/scheduler output.
	RetryCount           int       `json:"retry_count"`
	MaxRetries           int       `json:"max_retries"`
	RetryAfter           time.Time `json:"retry_after,omitempty"`
	ErrorCategory        string    `json:"error_category,omitempty"`
	LastError            string    `json:"last_error,omitempty"`
	ScheduledReleaseTime time.Time `json:"scheduled_release_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Due reports whether the job is eligible to run at the given time.
// Pending jobs are always due; jobs waiting on a retry window are due once
// the window has passed.
func (j *DownloadJob) Due(now time.Time) bool {
	switch j.Status {
	case StatusPending, StatusResolving, StatusTransferring:
		return true
	case StatusWaitingRetry:
		return !now.Before(j.RetryAfter)
	default:
		return false
	}
}

// Terminal reports whether the job will never run again.
func (j *DownloadJob) Terminal() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}
