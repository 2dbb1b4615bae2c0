package controllers

import (
	"time"

	"github.com/vodarc/vodarc/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type jobResponse struct {
	ID            string  `json:"id"`
	SourceURL     string  `json:"source_url"`
	Status        string  `json:"status"`
	Title         string  `json:"title,omitempty"`
	VideoID       string  `json:"video_id,omitempty"`
	Bucket        string  `json:"bucket"`
	Key           string  `json:"key,omitempty"`
	TotalBytes    int64   `json:"total_bytes"`
	BytesUploaded int64   `json:"bytes_uploaded"`
	Progress      float64 `json:"progress"`
	RetryCount    int     `json:"retry_count"`
	MaxRetries    int     `json:"max_retries"`
	RetryAfter    string  `json:"retry_after,omitempty"`
	ErrorCategory string  `json:"error_category,omitempty"`
	LastError     string  `json:"last_error,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func newJobResponse(job *domain.DownloadJob) jobResponse {
	resp := jobResponse{
		ID:            job.ID,
		SourceURL:     job.SourceURL,
		Status:        string(job.Status),
		Bucket:        job.Bucket,
		Key:           job.Key,
		TotalBytes:    job.TotalBytes,
		BytesUploaded: job.BytesUploaded,
		RetryCount:    job.RetryCount,
		MaxRetries:    job.MaxRetries,
		ErrorCategory: job.ErrorCategory,
		LastError:     job.LastError,
		CreatedAt:     job.CreatedAt.Format(time.RFC3339),
	}

	if job.Video != nil {
		resp.Title = job.Video.Title
		resp.VideoID = job.Video.VideoID
	}
	if job.TotalBytes > 0 {
		resp.Progress = float64(job.BytesUploaded) / float64(job.TotalBytes) * 100
	}
	if !job.RetryAfter.IsZero() {
		resp.RetryAfter = job.RetryAfter.Format(time.RFC3339)
	}
	return resp
}
