// Package http exposes the folding service over a gin HTTP API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foldcore/internal/interfaces/http/handlers"
	"github.com/turtacn/foldcore/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.
type RouterConfig struct {
	// Handlers
	FoldHandler   *handlers.FoldHandler
	HealthHandler *handlers.HealthHandler

	// Middleware
	Logging LoggingConfig

	// Infrastructure
	Logger           logging.Logger
	Metrics          *prometheus.FoldMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// LoggingConfig aliases the middleware configuration for callers that only
// import this package.
type LoggingConfig = middleware.LoggingConfig

// NewRouter constructs the gin engine: global middleware, public health and
// metrics endpoints, and the /api/v1 folding routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()

	// --- Global middleware (applied to every request) ---
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogging(logger, cfg.Logging))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	// --- API v1 ---
	api := r.Group("/api/v1")
	if cfg.FoldHandler != nil {
		cfg.FoldHandler.RegisterRoutes(api)
	}

	return r
}

//Personal.AI order the ending
