package app

import (
	"context"
	"time"

	"github.com/vodarc/vodarc/internal/clients"
	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/infra/config"
	"github.com/vodarc/vodarc/internal/infra/logger"
	"github.com/vodarc/vodarc/internal/transfer"
)

// Resolver turns a watch-page URL into a direct media URL plus metadata.
type Resolver interface {
	Resolve(ctx context.Context, url string) (*domain.VideoMetadata, error)
}

// Fetcher pulls byte ranges (and sizes) from the resolved media URL.
type Fetcher interface {
	transfer.RangeFetcher
	Length(ctx context.Context, url string) (int64, error)
}

// Store is the persistence surface the engine and API share.
type Store interface {
	SaveJob(job *domain.DownloadJob) error
	GetJob(id string) (*domain.DownloadJob, error)
	GetJobs() ([]*domain.DownloadJob, error)
	GetActiveJobs() ([]*domain.DownloadJob, error)
	GetDueJobs(now time.Time) ([]*domain.DownloadJob, error)
	SaveContinuation(jobID string, cont *transfer.Continuation) error
	GetContinuation(jobID string) (*transfer.Continuation, error)
	ClearContinuation(jobID string) error
}

// Context holds the core environment and shared resources for vodarc.
// It acts as the single source of truth for the application state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Store    Store
	Resolver Resolver
	Fetcher  Fetcher
	Objects  clients.ObjectStore
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config: cfg,
		Logger: log,
	}
}
