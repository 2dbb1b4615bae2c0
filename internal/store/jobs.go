package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/transfer"
)

const jobColumns = `id, source_url, status, video, bucket, key, upload_id,
	total_bytes, bytes_uploaded, part_size,
	retry_count, max_retries, retry_after, error_category, last_error,
	scheduled_release_time, continuation, created_at, updated_at`

// jobDBO maps to the jobs table
type jobDBO struct {
	ID                   string
	SourceURL            string
	Status               string
	Video                sql.NullString
	Bucket               string
	Key                  string
	UploadID             string
	TotalBytes           int64
	BytesUploaded        int64
	PartSize             int64
	RetryCount           int
	MaxRetries           int
	RetryAfter           int64
	ErrorCategory        string
	LastError            string
	ScheduledReleaseTime int64
	Continuation         sql.NullString
	CreatedAt            int64
	UpdatedAt            int64
}

func (d *jobDBO) ToDomain() (*domain.DownloadJob, error) {
	job := &domain.DownloadJob{
		ID:            d.ID,
		SourceURL:     d.SourceURL,
		Status:        domain.JobStatus(d.Status),
		Bucket:        d.Bucket,
		Key:           d.Key,
		UploadID:      d.UploadID,
		TotalBytes:    d.TotalBytes,
		BytesUploaded: d.BytesUploaded,
		PartSize:      d.PartSize,
		RetryCount:    d.RetryCount,
		MaxRetries:    d.MaxRetries,
		ErrorCategory: d.ErrorCategory,
		LastError:     d.LastError,
		CreatedAt:     time.Unix(d.CreatedAt, 0),
		UpdatedAt:     time.Unix(d.UpdatedAt, 0),
	}

	if d.RetryAfter > 0 {
		job.RetryAfter = time.Unix(d.RetryAfter, 0)
	}
	if d.ScheduledReleaseTime > 0 {
		job.ScheduledReleaseTime = time.Unix(d.ScheduledReleaseTime, 0)
	}

	if d.Video.Valid && d.Video.String != "" {
		if err := json.Unmarshal([]byte(d.Video.String), &job.Video); err != nil {
			return nil, fmt.Errorf("failed to decode video metadata for %s: %w", d.ID, err)
		}
	}
	return job, nil
}

func (d *jobDBO) FromDomain(job *domain.DownloadJob) error {
	d.ID = job.ID
	d.SourceURL = job.SourceURL
	d.Status = string(job.Status)
	d.Bucket = job.Bucket
	d.Key = job.Key
	d.UploadID = job.UploadID
	d.TotalBytes = job.TotalBytes
	d.BytesUploaded = job.BytesUploaded
	d.PartSize = job.PartSize
	d.RetryCount = job.RetryCount
	d.MaxRetries = job.MaxRetries
	d.ErrorCategory = job.ErrorCategory
	d.LastError = job.LastError

	if !job.RetryAfter.IsZero() {
		d.RetryAfter = job.RetryAfter.Unix()
	}
	if !job.ScheduledReleaseTime.IsZero() {
		d.ScheduledReleaseTime = job.ScheduledReleaseTime.Unix()
	}
	if !job.CreatedAt.IsZero() {
		d.CreatedAt = job.CreatedAt.Unix()
	}
	d.UpdatedAt = time.Now().Unix()

	if job.Video != nil {
		videoJSON, err := json.Marshal(job.Video)
		if err != nil {
			return fmt.Errorf("failed to encode video metadata: %w", err)
		}
		d.Video = sql.NullString{String: string(videoJSON), Valid: true}
	}
	return nil
}

// SaveJob inserts or replaces a job record. The continuation column is
// preserved; it is written separately by SaveContinuation.
func (s *PersistentStore) SaveJob(job *domain.DownloadJob) error {
	var dbo jobDBO
	if err := dbo.FromDomain(job); err != nil {
		return err
	}

	query := `INSERT INTO jobs (id, source_url, status, video, bucket, key, upload_id,
			total_bytes, bytes_uploaded, part_size,
			retry_count, max_retries, retry_after, error_category, last_error,
			scheduled_release_time, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			video = excluded.video,
			key = excluded.key,
			upload_id = excluded.upload_id,
			total_bytes = excluded.total_bytes,
			bytes_uploaded = excluded.bytes_uploaded,
			part_size = excluded.part_size,
			retry_count = excluded.retry_count,
			max_retries = excluded.max_retries,
			retry_after = excluded.retry_after,
			error_category = excluded.error_category,
			last_error = excluded.last_error,
			scheduled_release_time = excluded.scheduled_release_time,
			updated_at = excluded.updated_at`

	_, err := s.db.Exec(query,
		dbo.ID, dbo.SourceURL, dbo.Status, dbo.Video, dbo.Bucket, dbo.Key, dbo.UploadID,
		dbo.TotalBytes, dbo.BytesUploaded, dbo.PartSize,
		dbo.RetryCount, dbo.MaxRetries, dbo.RetryAfter, dbo.ErrorCategory, dbo.LastError,
		dbo.ScheduledReleaseTime, dbo.CreatedAt, dbo.UpdatedAt,
	)
	return err
}

func (s *PersistentStore) scanJob(row interface{ Scan(...any) error }) (*domain.DownloadJob, error) {
	var dbo jobDBO
	err := row.Scan(
		&dbo.ID, &dbo.SourceURL, &dbo.Status, &dbo.Video, &dbo.Bucket, &dbo.Key, &dbo.UploadID,
		&dbo.TotalBytes, &dbo.BytesUploaded, &dbo.PartSize,
		&dbo.RetryCount, &dbo.MaxRetries, &dbo.RetryAfter, &dbo.ErrorCategory, &dbo.LastError,
		&dbo.ScheduledReleaseTime, &dbo.Continuation, &dbo.CreatedAt, &dbo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return dbo.ToDomain()
}

// GetJob fetches one job by ID. Returns nil, nil when not found.
func (s *PersistentStore) GetJob(id string) (*domain.DownloadJob, error) {
	row := s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ? LIMIT 1`, id)

	job, err := s.scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch job: %w", err)
	}
	return job, nil
}

// GetJobs returns all jobs, oldest first (KSUIDs sort chronologically).
func (s *PersistentStore) GetJobs() ([]*domain.DownloadJob, error) {
	return s.queryJobs(`SELECT ` + jobColumns + ` FROM jobs ORDER BY id ASC`)
}

// GetActiveJobs returns jobs that are neither completed nor failed.
func (s *PersistentStore) GetActiveJobs() ([]*domain.DownloadJob, error) {
	return s.queryJobs(`SELECT ` + jobColumns + ` FROM jobs
		WHERE status NOT IN ('completed', 'failed')
		ORDER BY id ASC`)
}

// GetDueJobs returns active jobs eligible to run at the given time: either
// not waiting on a retry window, or past it.
func (s *PersistentStore) GetDueJobs(now time.Time) ([]*domain.DownloadJob, error) {
	return s.queryJobs(`SELECT `+jobColumns+` FROM jobs
		WHERE status NOT IN ('completed', 'failed')
		  AND (status != 'waiting_retry' OR retry_after <= ?)
		ORDER BY id ASC`, now.Unix())
}

func (s *PersistentStore) queryJobs(query string, args ...any) ([]*domain.DownloadJob, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.DownloadJob
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			// Skip undecodable rows rather than killing the whole listing
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SaveContinuation persists the in-flight transfer state for a job. Called
// after every coordinator step so a restart resumes from the last part.
func (s *PersistentStore) SaveContinuation(jobID string, cont *transfer.Continuation) error {
	contJSON, err := json.Marshal(cont)
	if err != nil {
		return fmt.Errorf("failed to encode continuation: %w", err)
	}

	_, err = s.db.Exec(`UPDATE jobs SET continuation = ?, updated_at = ? WHERE id = ?`,
		string(contJSON), time.Now().Unix(), jobID)
	return err
}

// GetContinuation loads the persisted transfer state. Returns nil, nil when
// the job has none (not started, or already finalized).
func (s *PersistentStore) GetContinuation(jobID string) (*transfer.Continuation, error) {
	var contJSON sql.NullString
	err := s.db.QueryRow(`SELECT continuation FROM jobs WHERE id = ? LIMIT 1`, jobID).Scan(&contJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !contJSON.Valid || contJSON.String == "" {
		return nil, nil
	}

	var cont transfer.Continuation
	if err := json.Unmarshal([]byte(contJSON.String), &cont); err != nil {
		return nil, fmt.Errorf("failed to decode continuation for %s: %w", jobID, err)
	}
	return &cont, nil
}

// ClearContinuation removes the transfer state once the job is finalized.
func (s *PersistentStore) ClearContinuation(jobID string) error {
	_, err := s.db.Exec(`UPDATE jobs SET continuation = NULL, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), jobID)
	return err
}
