// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (Storage, Cache, Transport, Search, Analytics, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Transport TransportConfig `yaml:"transport"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// StorageConfig holds the record store location.
type StorageConfig struct {
	IndexPath string `yaml:"indexPath"`
}

// CacheConfig holds the search-response cache settings. Capacity comes from
// the server command line; only the persistence location lives here.
type CacheConfig struct {
	PersistPath string `yaml:"persistPath"`
}

// TransportConfig holds the FIFO endpoint locations. ReplyPattern must
// contain a single %d verb for the client process id.
type TransportConfig struct {
	RequestPath  string `yaml:"requestPath"`
	ReplyPattern string `yaml:"replyPattern"`
}

// SearchConfig controls the parallel keyword scan.
type SearchConfig struct {
	MaxWorkersPerCPU int `yaml:"maxWorkersPerCpu"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// AnalyticsConfig controls the optional command-event pipeline. When
// disabled the server runs without Kafka or PostgreSQL.
type AnalyticsConfig struct {
	Enabled          bool           `yaml:"enabled"`
	BufferSize       int            `yaml:"bufferSize"`
	SnapshotInterval time.Duration  `yaml:"snapshotInterval"`
	Kafka            KafkaConfig    `yaml:"kafka"`
	Postgres         PostgresConfig `yaml:"postgres"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config matching the wire- and disk-compatible
// defaults of the existing deployment.
func defaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			IndexPath: "tmp/index.bin",
		},
		Cache: CacheConfig{
			PersistPath: "tmp/cache_lru.bin",
		},
		Transport: TransportConfig{
			RequestPath:  "/tmp/server.fifo",
			ReplyPattern: "/tmp/client_%d.fifo",
		},
		Search: SearchConfig{
			MaxWorkersPerCPU: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
		Analytics: AnalyticsConfig{
			Enabled:          false,
			BufferSize:       10000,
			SnapshotInterval: time.Minute,
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "docindex-events",
			},
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				Database:        "docindex",
				User:            "docindex",
				Password:        "localdev",
				SSLMode:         "disable",
				MaxOpenConns:    5,
				MaxIdleConns:    2,
				ConnMaxLifetime: 5 * time.Minute,
			},
		},
	}
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_STORAGE_INDEX_PATH"); v != "" {
		cfg.Storage.IndexPath = v
	}
	if v := os.Getenv("DS_CACHE_PERSIST_PATH"); v != "" {
		cfg.Cache.PersistPath = v
	}
	if v := os.Getenv("DS_TRANSPORT_REQUEST_PATH"); v != "" {
		cfg.Transport.RequestPath = v
	}
	if v := os.Getenv("DS_TRANSPORT_REPLY_PATTERN"); v != "" {
		cfg.Transport.ReplyPattern = v
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DS_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("DS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("DS_ANALYTICS_ENABLED"); v != "" {
		cfg.Analytics.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("DS_KAFKA_BROKERS"); v != "" {
		cfg.Analytics.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_KAFKA_TOPIC"); v != "" {
		cfg.Analytics.Kafka.Topic = v
	}
	if v := os.Getenv("DS_POSTGRES_HOST"); v != "" {
		cfg.Analytics.Postgres.Host = v
	}
	if v := os.Getenv("DS_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Analytics.Postgres.Port = port
		}
	}
	if v := os.Getenv("DS_POSTGRES_DATABASE"); v != "" {
		cfg.Analytics.Postgres.Database = v
	}
	if v := os.Getenv("DS_POSTGRES_USER"); v != "" {
		cfg.Analytics.Postgres.User = v
	}
	if v := os.Getenv("DS_POSTGRES_PASSWORD"); v != "" {
		cfg.Analytics.Postgres.Password = v
	}
}
