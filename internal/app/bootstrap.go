// Package app wires configuration into the long-running foldcore processes:
// logger, metrics, fold cache and the background folder build.
package app

import (
	"context"
	"io"

	"github.com/turtacn/foldcore/internal/application/folding"
	"github.com/turtacn/foldcore/internal/config"
	"github.com/turtacn/foldcore/internal/infrastructure/database/redis"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foldcore/internal/infrastructure/monitoring/prometheus"
)

// NewLogger builds the process logger from the log section and installs it
// as the package default.
func NewLogger(cfg config.LogConfig) (logging.Logger, error) {
	l, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Level,
		Format:      cfg.Format,
		OutputPaths: cfg.OutputPaths,
	})
	if err != nil {
		return nil, err
	}
	logging.SetDefault(l)
	return l, nil
}

// NewMetrics registers the fold metrics. Both results are nil when metrics
// are disabled.
func NewMetrics(cfg config.MetricsConfig, log logging.Logger) (*prometheus.FoldMetrics, prometheus.MetricsCollector, error) {
	if !cfg.Enabled {
		return nil, nil, nil
	}
	c, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return prometheus.NewFoldMetrics(c), c, nil
}

// Cache is an open fold cache and the connection it owns.
type Cache struct {
	*redis.FoldCache
	io.Closer
}

// NewCache connects the Redis fold cache, or returns nil when it is disabled.
func NewCache(cfg config.RedisConfig, log logging.Logger) (*Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := redis.NewClient(cfg, log)
	if err != nil {
		return nil, err
	}
	fc := redis.NewFoldCache(client, log.Named("cache"),
		redis.WithPrefix(cfg.KeyPrefix),
		redis.WithTTL(cfg.TTL),
	)
	return &Cache{FoldCache: fc, Closer: client}, nil
}

// Loader builds the folder in the background and publishes the folding
// service into Holder.
type Loader struct {
	Builder  folding.Builder
	Holder   *folding.Holder
	Options  []folding.Option
	OnReady  func(folding.Service)
	Logger   logging.Logger
	Shutdown context.CancelFunc
}

// Start returns immediately; the channel yields the build error, or nil once
// the service is published, and is then closed.
func (l Loader) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	log := l.Logger
	if log == nil {
		log = logging.NewNopLogger()
	}
	go func() {
		defer close(done)
		err := l.load(ctx)
		done <- err
		if err != nil {
			log.Error("folder build failed", logging.Err(err))
			if l.Shutdown != nil {
				l.Shutdown()
			}
		}
	}()
	return done
}

func (l Loader) load(ctx context.Context) error {
	folder, err := l.Builder.BuildFolder(ctx)
	if err != nil {
		return err
	}
	svc, err := folding.NewServiceFromConfig(folder, l.Builder.Config, l.Options...)
	if err != nil {
		return err
	}
	l.Holder.Set(svc)
	if l.OnReady != nil {
		l.OnReady(svc)
	}
	return nil
}

// WatchLogLevel re-applies log.level whenever the file at path changes.
// Other settings need a restart.
func WatchLogLevel(path string, log logging.Logger) error {
	setter, ok := log.(logging.LevelSetter)
	if !ok || path == "" {
		return nil
	}
	return config.Watch(path, func(cfg *config.Config) {
		setter.SetLevel(cfg.Log.Level)
		log.Info("log level reloaded", logging.String("level", cfg.Log.Level))
	}, func(err error) {
		log.Warn("ignoring invalid configuration change", logging.Err(err))
	})
}

//Personal.AI order the ending
