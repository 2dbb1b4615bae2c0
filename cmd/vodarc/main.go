package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/spf13/cobra"

	"github.com/vodarc/vodarc/internal/api"
	"github.com/vodarc/vodarc/internal/app"
	"github.com/vodarc/vodarc/internal/clients"
	"github.com/vodarc/vodarc/internal/domain"
	"github.com/vodarc/vodarc/internal/engine"
	"github.com/vodarc/vodarc/internal/fetch"
	"github.com/vodarc/vodarc/internal/infra/config"
	"github.com/vodarc/vodarc/internal/infra/logger"
	"github.com/vodarc/vodarc/internal/resolve"
	"github.com/vodarc/vodarc/internal/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "vodarc",
		Short: "Archives remote video to object storage in resumable chunks",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	root.AddCommand(serveCmd(), addCmd(), statusCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and wires the shared application context.
func bootstrap() (*app.Context, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Path, logger.ParseLevel(cfg.Log.Level), cfg.Log.IncludeStdout)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	appCtx := app.NewContext(cfg, log)

	db, err := store.NewPersistentStore(cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	appCtx.Store = db

	objects, err := clients.NewS3Client(clients.S3Options{
		Region:         cfg.S3.Region,
		Endpoint:       cfg.S3.Endpoint,
		AccessKey:      cfg.S3.AccessKey,
		SecretKey:      cfg.S3.SecretKey,
		ForcePathStyle: cfg.S3.ForcePathStyle,
		DisableSSL:     cfg.S3.DisableSSL,
	})
	if err != nil {
		return nil, err
	}
	appCtx.Objects = objects

	resolver, err := resolve.NewResolver(cfg.Resolver.Binary, cfg.Resolver.CookieFile)
	if err != nil {
		return nil, err
	}
	appCtx.Resolver = resolver

	appCtx.Fetcher = fetch.New(
		time.Duration(cfg.Download.TimeoutSeconds)*time.Second,
		cfg.Download.UserAgent,
	)

	return appCtx, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the job engine and HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := engine.NewJobManager(appCtx)
			go manager.Start(ctx)

			e := echo.New()
			api.RegisterRoutes(e, appCtx, manager)

			srv := &http.Server{Addr: ":" + appCtx.Config.Port, Handler: e}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			appCtx.Logger.Info("vodarc listening on :%s", appCtx.Config.Port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
}

func addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Download and archive a single video, then exit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := bootstrap()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := engine.NewJobManager(appCtx)
			job, err := manager.Add(args[0])
			if err != nil {
				return err
			}
			appCtx.Logger.Info("Enqueued job %s for %s", job.ID, job.SourceURL)

			runner := engine.NewRunner(appCtx)
			if err := runner.Run(ctx, job); err != nil {
				return fmt.Errorf("job %s did not complete: %w", job.ID, err)
			}

			appCtx.Logger.Info("Job %s completed", job.ID)
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id]",
		Short: "Show job status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appCtx, err := bootstrap()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				job, err := appCtx.Store.GetJob(args[0])
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job not found: %s", args[0])
				}
				printJob(job)
				return nil
			}

			jobs, err := appCtx.Store.GetJobs()
			if err != nil {
				return err
			}
			for _, job := range jobs {
				printJob(job)
			}
			return nil
		},
	}
}

func printJob(job *domain.DownloadJob) {
	title := job.SourceURL
	if job.Video != nil && job.Video.Title != "" {
		title = job.Video.Title
	}

	line := fmt.Sprintf("%s  %-14s  %s", job.ID, job.Status, title)
	if job.TotalBytes > 0 {
		line += fmt.Sprintf("  %d/%d MB", job.BytesUploaded/1024/1024, job.TotalBytes/1024/1024)
	}
	if job.LastError != "" {
		line += fmt.Sprintf("  [%s] %s", job.ErrorCategory, job.LastError)
	}
	fmt.Println(line)
}
