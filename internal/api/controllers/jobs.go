package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/vodarc/vodarc/internal/app"
	"github.com/vodarc/vodarc/internal/engine"
)

type JobsController struct {
	App     *app.Context
	Manager *engine.JobManager
}

type createJobRequest struct {
	URL string `json:"url"`
}

// Create enqueues a new acquisition job for a source URL.
func (ctrl *JobsController) Create(c *echo.Context) error {
	var req createJobRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "url is required"})
	}

	job, err := ctrl.Manager.Add(req.URL)
	if err != nil {
		ctrl.App.Logger.Error("Failed to enqueue job: %v", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to enqueue job"})
	}

	return c.JSON(http.StatusCreated, newJobResponse(job))
}

// List returns every job, oldest first.
func (ctrl *JobsController) List(c *echo.Context) error {
	jobs, err := ctrl.App.Store.GetJobs()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to list jobs"})
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, newJobResponse(j))
	}
	return c.JSON(http.StatusOK, out)
}

// Get returns a single job by ID.
func (ctrl *JobsController) Get(c *echo.Context) error {
	job, err := ctrl.App.Store.GetJob(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to fetch job"})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "job not found"})
	}
	return c.JSON(http.StatusOK, newJobResponse(job))
}

// Retry resets a failed job so the engine picks it up again.
func (ctrl *JobsController) Retry(c *echo.Context) error {
	job, err := ctrl.Manager.Retry(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to retry job"})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "job not found"})
	}
	return c.JSON(http.StatusOK, newJobResponse(job))
}

// Cancel stops a running job.
func (ctrl *JobsController) Cancel(c *echo.Context) error {
	if !ctrl.Manager.Cancel(c.Param("id")) {
		return c.JSON(http.StatusNotFound, errorResponse{Error: "job is not running"})
	}
	return c.NoContent(http.StatusNoContent)
}
