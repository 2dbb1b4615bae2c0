package engine

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/vodarc/vodarc/internal/app"
	"github.com/vodarc/vodarc/internal/domain"
)

// retryPollInterval is how often the manager re-checks the store for jobs
// whose retry window has opened. This is the scheduled re-invocation trigger:
// coarse on purpose, retry windows are minutes to hours.
const retryPollInterval = time.Minute

// JobManager owns the job queue: it accepts new jobs, wakes up when retry
// windows open, and hands due jobs to the runner one at a time.
type JobManager struct {
	mu        sync.RWMutex
	ctx       *app.Context
	runner    *Runner
	activeJob *domain.DownloadJob
	cancels   map[string]context.CancelFunc

	newJobChan chan struct{}
}

func NewJobManager(appCtx *app.Context) *JobManager {
	return &JobManager{
		ctx:        appCtx,
		runner:     NewRunner(appCtx),
		cancels:    make(map[string]context.CancelFunc),
		newJobChan: make(chan struct{}, 1),
	}
}

// Add creates a new job for the given source URL and notifies the run loop.
func (m *JobManager) Add(sourceURL string) (*domain.DownloadJob, error) {
	job := &domain.DownloadJob{
		ID:        ksuid.New().String(),
		SourceURL: sourceURL,
		Status:    domain.StatusPending,
		Bucket:    m.ctx.Config.S3.Bucket,
		PartSize:  m.ctx.Config.Download.PartSize,
		CreatedAt: time.Now(),
	}

	if err := m.ctx.Store.SaveJob(job); err != nil {
		return nil, err
	}

	// Signal the Start() loop that there is work to do
	select {
	case m.newJobChan <- struct{}{}:
	default:
		// Signal already pending, no need to block
	}

	return job, nil
}

// Start runs the queue loop until the context is cancelled. Jobs for a
// single queue run strictly one at a time; each job's transfer is itself
// sequential, one part per step.
func (m *JobManager) Start(ctx context.Context) {
	ticker := time.NewTicker(retryPollInterval)
	defer ticker.Stop()

	for {
		next := m.nextDue()

		if next == nil {
			select {
			case <-m.newJobChan:
				continue
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}

		jobCtx, cancel := context.WithCancel(ctx)
		m.setActive(next, cancel)

		err := m.runner.Run(jobCtx, next)
		m.clearActive(next.ID)
		cancel()

		if err != nil && ctx.Err() != nil {
			// Shutting down; leave the job as-is, it resumes on restart.
			return
		}
	}
}

func (m *JobManager) nextDue() *domain.DownloadJob {
	now := time.Now()
	jobs, err := m.ctx.Store.GetDueJobs(now)
	if err != nil {
		m.ctx.Logger.Error("Failed to query due jobs: %v", err)
		return nil
	}
	for _, job := range jobs {
		if job.Due(now) {
			return job
		}
	}
	return nil
}

func (m *JobManager) setActive(job *domain.DownloadJob, cancel context.CancelFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeJob = job
	m.cancels[job.ID] = cancel
}

func (m *JobManager) clearActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeJob = nil
	delete(m.cancels, id)
}

// ActiveJob exposes the currently running job to the API layer.
func (m *JobManager) ActiveJob() *domain.DownloadJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeJob
}

// Cancel stops the job if it is currently running. Its persisted state
// stays put, so it picks up again on the next due scan unless the caller
// also marks it failed.
func (m *JobManager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cancel, ok := m.cancels[id]; ok {
		cancel()
		return true
	}
	return false
}

// Retry makes a failed job eligible again with a fresh retry budget.
func (m *JobManager) Retry(id string) (*domain.DownloadJob, error) {
	job, err := m.ctx.Store.GetJob(id)
	if err != nil || job == nil {
		return nil, err
	}
	if !job.Terminal() {
		// Already queued or running; nothing to reset.
		return job, nil
	}

	job.Status = domain.StatusPending
	job.RetryCount = 0
	job.RetryAfter = time.Time{}
	job.ErrorCategory = ""
	job.LastError = ""

	if err := m.ctx.Store.SaveJob(job); err != nil {
		return nil, err
	}

	select {
	case m.newJobChan <- struct{}{}:
	default:
	}
	return job, nil
}
