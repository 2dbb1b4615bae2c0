package api

import (
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/vodarc/vodarc/internal/api/controllers"
	"github.com/vodarc/vodarc/internal/app"
	"github.com/vodarc/vodarc/internal/engine"
)

func RegisterRoutes(e *echo.Echo, appCtx *app.Context, manager *engine.JobManager) {

	// Middleware: Request Logger
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			appCtx.Logger.Info("%s %s | %d | %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	jobsCtrl := &controllers.JobsController{App: appCtx, Manager: manager}

	e.POST("/api/jobs", jobsCtrl.Create)
	e.GET("/api/jobs", jobsCtrl.List)
	e.GET("/api/jobs/:id", jobsCtrl.Get)
	e.POST("/api/jobs/:id/retry", jobsCtrl.Retry)
	e.DELETE("/api/jobs/:id", jobsCtrl.Cancel)
}
