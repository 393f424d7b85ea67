// Command foldworker consumes fold requests from Kafka and publishes one
// fold result per request.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/foldcore/internal/app"
	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/foldcore/internal/interfaces/http"
	"github.com/turtacn/foldcore/internal/interfaces/http/handlers"
	"github.com/turtacn/foldcore/internal/interfaces/http/middleware"
	"github.com/turtacn/foldcore/internal/interfaces/worker"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: environment only)")
	flag.Parse()

	cfg, err := config.LoadOrEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := app.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if err := run(cfg, *configPath, logger.Named("foldworker")); err != nil {
		logger.Error("foldworker exited", logging.Err(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting foldworker",
		logging.String("request_topic", cfg.Kafka.RequestTopic),
		logging.String("result_topic", cfg.Kafka.ResultTopic),
	)
	if err := app.WatchLogLevel(configPath, logger); err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}

	metrics, collector, err := app.NewMetrics(cfg.Metrics, logger)
	if err != nil {
		return err
	}
	opts := []folding.Option{folding.WithLogger(logger), folding.WithMetrics(metrics)}
	cache, err := app.NewCache(cfg.Redis, logger)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		opts = append(opts, folding.WithCache(cache))
	}

	// The probe server exposes health and metrics only; the worker consumes
	// once the folder is ready.
	holder := &folding.Holder{}
	probe := httpserver.NewServer(cfg.Server, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    handlers.NewHealthHandler("foldworker", holder.Ready),
		Logging:          middleware.DefaultLoggingConfig(),
		Logger:           logger,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}), logger)
	go func() {
		if err := probe.Start(); err != nil {
			logger.Error("probe server error", logging.Err(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		_ = probe.Stop(shutdownCtx)
	}()

	err = <-app.Loader{
		Builder: folding.Builder{Config: cfg, Logger: logger, Metrics: metrics},
		Holder:  holder,
		Options: opts,
		Logger:  logger,
	}.Start(ctx)
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger.Named("producer"))
	if err != nil {
		return err
	}
	defer producer.Close()

	fw, err := worker.NewFoldWorker(holder, producer, cfg.Kafka.ResultTopic,
		worker.WithLogger(logger),
		worker.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}
	consumer, err := kafka.NewConsumer(cfg.Kafka, fw.Handle, logger.Named("consumer"))
	if err != nil {
		return err
	}
	if err := consumer.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("shutting down foldworker")
	if err := consumer.Close(); err != nil {
		logger.Error("consumer close error", logging.Err(err))
	}
	st := consumer.Stats()
	logger.Info("foldworker stopped",
		logging.Int64("consumed", st.Consumed),
		logging.Int64("processed", st.Processed),
		logging.Int64("failed", st.Failed),
	)
	return nil
}

//Personal.AI order the ending
