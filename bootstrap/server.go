// ABOUTME: Echo HTTP server setup: middleware, API routes, and the
// ABOUTME: prometheus metrics endpoint
package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mail-digest/config"
)

// NewHTTPServer creates and configures the Echo HTTP server.
func NewHTTPServer(deps *Dependencies, cfg config.ServerConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = cfg.ReadTimeout.Std()
	e.Server.WriteTimeout = cfg.WriteTimeout.Std()

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == "/metrics"
		},
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ctx := c.Request().Context()
			deps.Logger.InfoContext(ctx, "HTTP request completed",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api := e.Group("/api/v1")
	api.POST("/process", deps.ProcessHandler.HandleProcess)
	api.POST("/process/:message_id", deps.ProcessHandler.HandleProcessSingle)
	api.GET("/summaries", deps.SummaryHandler.HandleList)
	api.GET("/summaries/:message_id", deps.SummaryHandler.HandleGet)
	api.POST("/summaries/:message_id/feedback", deps.SummaryHandler.HandleFeedback)
	api.DELETE("/summaries/:message_id", deps.SummaryHandler.HandleDelete)
	api.DELETE("/data", deps.SummaryHandler.HandleErase)

	e.GET("/health", deps.HealthHandler.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	return e
}
