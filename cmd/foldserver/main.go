// Command foldserver serves the folding HTTP API and the gRPC health service.
// Both listen immediately; folding requests are answered once the
// conformation library has been built.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/foldcore/internal/app"
	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	grpcserver "github.com/turtacn/foldcore/internal/interfaces/grpc"
	httpserver "github.com/turtacn/foldcore/internal/interfaces/http"
	"github.com/turtacn/foldcore/internal/interfaces/http/handlers"
	"github.com/turtacn/foldcore/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	grpcPort := flag.Int("grpc-port", 0, "gRPC server port (overrides config)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *httpPort > 0 {
		cfg.Server.Port = *httpPort
	}
	if *grpcPort > 0 {
		cfg.Server.GRPCPort = *grpcPort
	}

	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, *configPath, logger.Named("foldserver")); err != nil {
		logger.Error("foldserver exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting foldserver",
		logging.String("version", version),
		logging.String("library", cfg.Library.Kind),
		logging.Int("http_port", cfg.Server.Port),
		logging.Int("grpc_port", cfg.Server.GRPCPort),
	)
	if err := app.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	metrics, collector, err := app.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}

	opts := []folding.Option{folding.WithLogger(logger), folding.WithMetrics(metrics)}
	var checks []handlers.HealthChecker
	cache, err := app.NewCache(cfg.Redis, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		opts = append(opts, folding.WithCache(cache))
		checks = append(checks, handlers.CheckFunc("redis", cache.Ping))
	}

	holder := &folding.Holder{}

	gin.SetMode(cfg.Server.Mode)
	logCfg := middleware.DefaultLoggingConfig()
	logCfg.SkipPaths = append(logCfg.SkipPaths, cfg.Metrics.Path)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		FoldHandler:      handlers.NewFoldHandler(holder),
		HealthHandler:    handlers.NewHealthHandler(version, holder.Ready, checks...),
		Logging:          logCfg,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	})
	httpSrv := httpserver.NewServer(cfg.Server, router, logger)

	grpcSrv, err := grpcserver.NewServer(cfg.Server,
		grpcserver.WithLogger(logger),
		grpcserver.WithMetrics(metrics),
		grpcserver.WithGracefulTimeout(cfg.Server.ShutdownTimeout),
	)
	if err != nil {
		return err
	}

	errCh := make(chan error, 3)
	go func() { errCh <- httpSrv.Start() }()
	go func() { errCh <- grpcSrv.Start() }()

	built := app.Loader{
		Builder:  folding.Builder{Config: cfg, Logger: logger, Metrics: metrics},
		Holder:   holder,
		Options:  opts,
		Logger:   logger,
		Shutdown: stop,
		OnReady: func(svc folding.Service) {
			grpcSrv.SetServing(true)
			logger.Info("folder ready",
				logging.String("fingerprint", svc.Fingerprint()),
				logging.Int("structures", svc.Library().Size))
		},
	}.Start(ctx)

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		runErr = err
	}
	// A failed build cancels ctx; report it as the exit reason.
	select {
	case err := <-built:
		if runErr == nil {
			runErr = err
		}
	default:
	}

	logger.Info("shutting down foldserver")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}
	if err := grpcSrv.Stop(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", logging.Err(err))
	}
	return runErr
}

//Personal.AI order the ending
