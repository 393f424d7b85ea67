package config

import (
	"math"
	"time"
)

// maxLatticeSide mirrors the enumeration limit of the lattice backend.
const maxLatticeSide = 6

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultLibraryKind   = "lattice"
	DefaultLatticeSide   = 5
	DefaultProteinLength = 300
	DefaultDecoySource   = "dir"
	DefaultDecoyIndex    = "maps.txt"
	DefaultBuildTimeout  = 2 * time.Minute

	DefaultWeighting         = "zero-energy"
	DefaultWorkers           = 4
	DefaultMaxBatch          = 1000
	DefaultNeutralityCutoff  = -5.0
	DefaultDesignMaxAttempts = 100000

	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultGRPCPort        = 9090
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisPoolSize    = 10
	DefaultRedisDialTimeout = 5 * time.Second
	DefaultRedisTTL         = 24 * time.Hour
	DefaultRedisKeyPrefix   = "foldcore:"

	DefaultMinIOBucket = "decoys"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "foldcore-workers"
	DefaultKafkaRequestTopic = "fold.requests"
	DefaultKafkaResultTopic  = "fold.results"
	DefaultKafkaMaxWait      = 500 * time.Millisecond

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "foldcore"
	DefaultMetricsPath      = "/metrics"
)

// DefaultLogNconf is ln(10^160), the unsampled-conformation estimate used
// with 300-residue decoy sets.
var DefaultLogNconf = 160 * math.Ln10

// ApplyDefaults fills every zero-value field in cfg with its default.
// Explicitly configured values are left unchanged. Fields for which zero is
// a meaningful setting (library.log_nconf, folding.neutrality_cutoff) are
// not touched here; their defaults come from Default and the loader.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Library ───────────────────────────────────────────────────────────────
	if cfg.Library.Kind == "" {
		cfg.Library.Kind = DefaultLibraryKind
	}
	if cfg.Library.LatticeSide == 0 {
		cfg.Library.LatticeSide = DefaultLatticeSide
	}
	if cfg.Library.ProteinLength == 0 {
		cfg.Library.ProteinLength = DefaultProteinLength
	}
	if cfg.Library.DecoySource == "" {
		cfg.Library.DecoySource = DefaultDecoySource
	}
	if cfg.Library.DecoyIndex == "" {
		cfg.Library.DecoyIndex = DefaultDecoyIndex
	}
	if cfg.Library.BuildTimeout == 0 {
		cfg.Library.BuildTimeout = DefaultBuildTimeout
	}

	// ── Folding ───────────────────────────────────────────────────────────────
	if cfg.Folding.Weighting == "" {
		cfg.Folding.Weighting = DefaultWeighting
	}
	if cfg.Folding.Workers == 0 {
		cfg.Folding.Workers = DefaultWorkers
	}
	if cfg.Folding.MaxBatch == 0 {
		cfg.Folding.MaxBatch = DefaultMaxBatch
	}
	if cfg.Folding.DesignMaxAttempts == 0 {
		cfg.Folding.DesignMaxAttempts = DefaultDesignMaxAttempts
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.GRPCPort == 0 {
		cfg.Server.GRPCPort = DefaultGRPCPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.DialTimeout == 0 {
		cfg.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = DefaultRedisTTL
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.RequestTopic == "" {
		cfg.Kafka.RequestTopic = DefaultKafkaRequestTopic
	}
	if cfg.Kafka.ResultTopic == "" {
		cfg.Kafka.ResultTopic = DefaultKafkaResultTopic
	}
	if cfg.Kafka.MaxWait == 0 {
		cfg.Kafka.MaxWait = DefaultKafkaMaxWait
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// Default returns a Config with every default applied. Unlike ApplyDefaults
// it also switches on the boolean features that default to enabled and sets
// the fields whose zero value is a valid explicit choice.
func Default() *Config {
	cfg := &Config{
		Library: LibraryConfig{LogNconf: DefaultLogNconf},
		Folding: FoldingConfig{NeutralityCutoff: DefaultNeutralityCutoff},
		Metrics: MetricsConfig{Enabled: true},
	}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
