package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vodarc/vodarc/internal/app"
	"github.com/vodarc/vodarc/internal/classify"
	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/retry"
	"github.com/vodarc/vodarc/internal/transfer"
)

// Runner executes one job end to end: resolve the source, open a multipart
// transfer, drive the coordinator one part at a time, finalize. The
// continuation is persisted after every step, so a crash or restart resumes
// from the last completed part instead of starting over.
type Runner struct {
	ctx         *app.Context
	coordinator *transfer.Coordinator
}

func NewRunner(appCtx *app.Context) *Runner {
	return &Runner{
		ctx:         appCtx,
		coordinator: transfer.NewCoordinator(appCtx.Fetcher, appCtx.Objects),
	}
}

// Run executes the job and, on terminal failure, classifies the error and
// persists the retry policy decision.
func (r *Runner) Run(ctx context.Context, job *domain.DownloadJob) error {
	err := r.execute(ctx, job)
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		// Shutdown or cancel, not a job failure. State is already
		// persisted up to the last completed part.
		return err
	}

	r.fail(job, err)
	return err
}

func (r *Runner) execute(ctx context.Context, job *domain.DownloadJob) error {
	// A persisted continuation means a transfer is mid-flight; skip
	// straight to the loop. Re-running the last persisted step is safe:
	// the store replaces parts by number.
	cont, err := r.ctx.Store.GetContinuation(job.ID)
	if err != nil {
		return err
	}

	if cont == nil {
		cont, err = r.prepare(ctx, job)
		if err != nil {
			return err
		}
	}

	return r.transferLoop(ctx, job, cont)
}

// prepare resolves the source and opens the multipart transfer.
func (r *Runner) prepare(ctx context.Context, job *domain.DownloadJob) (*transfer.Continuation, error) {
	job.Status = domain.StatusResolving
	_ = r.ctx.Store.SaveJob(job)

	meta, err := r.ctx.Resolver.Resolve(ctx, job.SourceURL)
	if meta != nil {
		// Keep whatever metadata we got even when resolution failed;
		// the classifier reads availability hints from it.
		job.Video = meta
		if meta.ReleaseTimestamp > 0 {
			job.ScheduledReleaseTime = time.Unix(meta.ReleaseTimestamp, 0)
		}
		_ = r.ctx.Store.SaveJob(job)
	}
	if err != nil {
		return nil, err
	}

	totalBytes := meta.Filesize
	if totalBytes == 0 {
		totalBytes, err = r.ctx.Fetcher.Length(ctx, meta.VideoURL)
		if err != nil {
			return nil, fmt.Errorf("failed to size source: %w", err)
		}
	}
	if totalBytes <= 0 {
		return nil, domain.ErrEmptySource
	}

	key := objectKey(job, meta)

	uploadID, err := r.ctx.Objects.CreateTransfer(ctx, job.Bucket, key, meta.MimeType)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart transfer: %w", err)
	}

	job.Key = key
	job.UploadID = uploadID
	job.TotalBytes = totalBytes
	job.Status = domain.StatusTransferring

	cont := transfer.NewContinuation(job.ID, meta.VideoURL, job.Bucket, key, uploadID, totalBytes, job.PartSize)

	if err := r.ctx.Store.SaveJob(job); err != nil {
		return nil, err
	}
	if err := r.ctx.Store.SaveContinuation(job.ID, cont); err != nil {
		return nil, err
	}

	r.ctx.Logger.Info("Job %s: transferring %d bytes to s3://%s/%s in %d parts",
		job.ID, totalBytes, job.Bucket, key, transfer.TotalParts(totalBytes, job.PartSize))

	return cont, nil
}

// transferLoop advances the coordinator one part per iteration, persisting
// the new continuation each time, until it emits the completion record.
func (r *Runner) transferLoop(ctx context.Context, job *domain.DownloadJob, cont *transfer.Continuation) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		next, done, err := r.coordinator.Advance(ctx, cont)
		if err != nil {
			return err
		}

		if done != nil {
			return r.finalize(ctx, job, done)
		}

		cont = next
		job.BytesUploaded = cont.TotalBytes - cont.BytesRemaining
		if err := r.ctx.Store.SaveContinuation(job.ID, cont); err != nil {
			return err
		}
		_ = r.ctx.Store.SaveJob(job)

		r.ctx.Logger.Debug("Job %s: part %d sent, %d bytes remaining",
			job.ID, cont.PartNumber-1, cont.BytesRemaining)
	}
}

// finalize closes the multipart transfer and marks the job completed.
func (r *Runner) finalize(ctx context.Context, job *domain.DownloadJob, done *transfer.Completion) error {
	location, err := r.ctx.Objects.CompleteTransfer(ctx, done.Bucket, done.Key, done.UploadID, done.PartTags)
	if err != nil {
		return fmt.Errorf("failed to complete multipart transfer: %w", err)
	}

	job.Status = domain.StatusCompleted
	job.BytesUploaded = job.TotalBytes
	job.ErrorCategory = ""
	job.LastError = ""

	if err := r.ctx.Store.SaveJob(job); err != nil {
		return err
	}
	if err := r.ctx.Store.ClearContinuation(job.ID); err != nil {
		return err
	}

	r.ctx.Logger.Info("Job %s: completed, %d parts at %s", job.ID, len(done.PartTags), location)
	return nil
}

// fail runs the classifier and persists the resulting retry policy.
func (r *Runner) fail(job *domain.DownloadJob, cause error) {
	cls := classify.Classify(cause, job.Video.Hint(), job.RetryCount)

	job.ErrorCategory = string(cls.Category)
	job.LastError = cls.Reason
	job.MaxRetries = cls.MaxRetries

	if cls.Retryable && !retry.IsExhausted(job.RetryCount, cls.MaxRetries) {
		job.RetryCount++
		job.RetryAfter = cls.RetryAfter
		job.Status = domain.StatusWaitingRetry
		r.ctx.Logger.Warn("Job %s: %s (attempt %d/%d), retrying after %s: %s",
			job.ID, cls.Category, job.RetryCount, cls.MaxRetries,
			cls.RetryAfter.Format(time.RFC3339), cls.Reason)
	} else {
		job.Status = domain.StatusFailed
		r.ctx.Logger.Error("Job %s: %s, giving up: %s", job.ID, cls.Category, cls.Reason)
	}

	if err := r.ctx.Store.SaveJob(job); err != nil {
		r.ctx.Logger.Error("Job %s: failed to persist failure state: %v", job.ID, err)
	}
}

func objectKey(job *domain.DownloadJob, meta *domain.VideoMetadata) string {
	if meta.VideoID != "" && meta.Ext != "" {
		return fmt.Sprintf("videos/%s.%s", meta.VideoID, meta.Ext)
	}
	return fmt.Sprintf("videos/%s.mp4", job.ID)
}
