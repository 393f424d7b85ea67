// Package config defines the configuration structures of foldcore. No I/O
// or parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// LibraryConfig selects and parameterises the conformation library.
type LibraryConfig struct {
	Kind          string        `mapstructure:"kind"`           // "lattice" | "decoy"
	LatticeSide   int           `mapstructure:"lattice_side"`   // lattice only
	ProteinLength int           `mapstructure:"protein_length"` // decoy only
	LogNconf      float64       `mapstructure:"log_nconf"`      // decoy only
	DecoySource   string        `mapstructure:"decoy_source"`   // "dir" | "minio"
	DecoyDir      string        `mapstructure:"decoy_dir"`
	DecoyIndex    string        `mapstructure:"decoy_index"`
	BuildTimeout  time.Duration `mapstructure:"build_timeout"`
}

// EnergyConfig points at an optional custom contact energy table.
type EnergyConfig struct {
	MatrixPath string `mapstructure:"matrix_path"`
}

// FoldingConfig holds folder and sequence-design tunables.
type FoldingConfig struct {
	Weighting         string  `mapstructure:"weighting"` // "zero-energy" | "flat"
	VerifyLetters     bool    `mapstructure:"verify_letters"`
	Workers           int     `mapstructure:"workers"`
	MaxBatch          int     `mapstructure:"max_batch"`
	NeutralityCutoff  float64 `mapstructure:"neutrality_cutoff"`
	DesignMaxAttempts int     `mapstructure:"design_max_attempts"`
}

// ServerConfig holds HTTP and gRPC server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	GRPCPort        int           `mapstructure:"grpc_port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig holds the fold-result cache connection.
type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	TTL         time.Duration `mapstructure:"ttl"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// MinIOConfig locates decoy contact maps in object storage.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// KafkaConfig holds the fold worker's topics.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	RequestTopic string        `mapstructure:"request_topic"`
	ResultTopic  string        `mapstructure:"result_topic"`
	MaxWait      time.Duration `mapstructure:"max_wait"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration of every foldcore binary.
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Energy  EnergyConfig  `mapstructure:"energy"`
	Folding FoldingConfig `mapstructure:"folding"`
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of a fully populated Config and
// returns the first problem found.
func (c *Config) Validate() error {
	// Library
	switch c.Library.Kind {
	case "lattice":
		if c.Library.LatticeSide < 1 || c.Library.LatticeSide > maxLatticeSide {
			return fmt.Errorf("config: library.lattice_side %d is out of range [1, %d]", c.Library.LatticeSide, maxLatticeSide)
		}
	case "decoy":
		if c.Library.ProteinLength < 1 {
			return fmt.Errorf("config: library.protein_length must be ≥ 1, got %d", c.Library.ProteinLength)
		}
		if c.Library.DecoyIndex == "" {
			return fmt.Errorf("config: library.decoy_index is required")
		}
		switch c.Library.DecoySource {
		case "dir":
			if c.Library.DecoyDir == "" {
				return fmt.Errorf("config: library.decoy_dir is required for decoy_source dir")
			}
		case "minio":
			if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
				return fmt.Errorf("config: minio.endpoint and minio.bucket are required for decoy_source minio")
			}
		default:
			return fmt.Errorf("config: library.decoy_source %q is invalid; expected dir|minio", c.Library.DecoySource)
		}
	default:
		return fmt.Errorf("config: library.kind %q is invalid; expected lattice|decoy", c.Library.Kind)
	}
	if c.Library.BuildTimeout < 0 {
		return fmt.Errorf("config: library.build_timeout must not be negative")
	}

	// Folding
	switch c.Folding.Weighting {
	case "zero-energy", "flat":
	default:
		return fmt.Errorf("config: folding.weighting %q is invalid; expected zero-energy|flat", c.Folding.Weighting)
	}
	if c.Folding.Workers < 1 {
		return fmt.Errorf("config: folding.workers must be ≥ 1, got %d", c.Folding.Workers)
	}
	if c.Folding.MaxBatch < 1 {
		return fmt.Errorf("config: folding.max_batch must be ≥ 1, got %d", c.Folding.MaxBatch)
	}
	if c.Folding.DesignMaxAttempts < 1 {
		return fmt.Errorf("config: folding.design_max_attempts must be ≥ 1, got %d", c.Folding.DesignMaxAttempts)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	if c.Server.GRPCPort < 1 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("config: server.grpc_port %d is out of range [1, 65535]", c.Server.GRPCPort)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("config: redis.addr is required when redis is enabled")
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.RequestTopic == "" || c.Kafka.ResultTopic == "" {
		return fmt.Errorf("config: kafka.request_topic and kafka.result_topic are required")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

//Personal.AI order the ending
