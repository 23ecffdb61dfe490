// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Sources, Index, Server, Postgres, Redis, Kafka, etc.).
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
	Server    ServerConfig   `yaml:"server"`
	Index     IndexConfig    `yaml:"index"`
	Sources   []SourceConfig `yaml:"sources"`
	Postgres  PostgresConfig `yaml:"postgres"`
	Redis     RedisConfig    `yaml:"redis"`
	Analytics KafkaConfig    `yaml:"analytics"`
	Logging   LoggingConfig  `yaml:"logging"`
	Metrics   MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings for the query service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// IndexConfig controls the term table's shape and record budgets.
type IndexConfig struct {
	// BucketCount is fixed at construction; the table never rehashes.
	BucketCount int `yaml:"bucketCount"`
	// MaxTermLen bounds normalized terms; longer tokens are truncated.
	MaxTermLen int `yaml:"maxTermLen"`
	// MaxTerms and MaxPostings cap record allocation. Zero means unbounded.
	MaxTerms    int    `yaml:"maxTerms"`
	MaxPostings int    `yaml:"maxPostings"`
	Delimiters  string `yaml:"delimiters"`
}

// SourceConfig describes one ingestable text source. Provider is "file" or
// "postgres"; Path applies to file sources, Query to postgres sources.
type SourceConfig struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"`
	Path     string `yaml:"path"`
	Query    string `yaml:"query"`
}

// PostgresConfig holds PostgreSQL connection parameters for sources backed
// by database rows.
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

// RedisConfig holds Redis connection and query-cache parameters. An empty
// Addr disables caching.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// KafkaConfig holds broker and topic settings for query analytics events.
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
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
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultDelimiters is the token boundary set: whitespace plus the common
// punctuation the indexer splits on.
const DefaultDelimiters = " \t\r\n,.?!\"()[]{}"

// defaultConfig returns a Config with defaults matching the classic
// single-machine setup: a fixed 1007-bucket table over four local files.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Index: IndexConfig{
			BucketCount: 1007,
			MaxTermLen:  50,
			MaxTerms:    1 << 20,
			MaxPostings: 1 << 22,
			Delimiters:  DefaultDelimiters,
		},
		Sources: []SourceConfig{
			{ID: 1, Name: "source_1.txt", Provider: "file", Path: "source_1.txt"},
			{ID: 2, Name: "source_2.txt", Provider: "file", Path: "source_2.txt"},
			{ID: 3, Name: "requirements.txt", Provider: "file", Path: "requirements.txt"},
			{ID: 4, Name: "test.txt", Provider: "file", Path: "test.txt"},
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "termindex",
			User:            "termindex",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Analytics: KafkaConfig{
			Enabled: false,
			Brokers: []string{"localhost:9092"},
			Topic:   "query-events",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// validate rejects configurations the index cannot be built from.
func validate(cfg *Config) error {
	if cfg.Index.BucketCount <= 0 {
		return fmt.Errorf("index.bucketCount must be positive, got %d", cfg.Index.BucketCount)
	}
	if cfg.Index.MaxTermLen <= 0 {
		return fmt.Errorf("index.maxTermLen must be positive, got %d", cfg.Index.MaxTermLen)
	}
	if cfg.Index.Delimiters == "" {
		cfg.Index.Delimiters = DefaultDelimiters
	}
	seen := make(map[int]string, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.ID <= 0 {
			return fmt.Errorf("source %q: id must be positive, got %d", src.Name, src.ID)
		}
		if prev, dup := seen[src.ID]; dup {
			return fmt.Errorf("sources %q and %q share id %d", prev, src.Name, src.ID)
		}
		seen[src.ID] = src.Name
		switch src.Provider {
		case "", "file":
			if src.Path == "" {
				return fmt.Errorf("file source %q: path is required", src.Name)
			}
		case "postgres":
			if src.Query == "" {
				return fmt.Errorf("postgres source %q: query is required", src.Name)
			}
		default:
			return fmt.Errorf("source %q: unknown provider %q", src.Name, src.Provider)
		}
	}
	return nil
}

// NeedsPostgres reports whether any configured source is database-backed.
func (c *Config) NeedsPostgres() bool {
	for _, src := range c.Sources {
		if src.Provider == "postgres" {
			return true
		}
	}
	return false
}

// applyEnvOverrides reads TI_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TI_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TI_INDEX_BUCKET_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.BucketCount = n
		}
	}
	if v := os.Getenv("TI_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TI_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TI_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TI_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TI_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TI_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TI_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TI_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TI_ANALYTICS_BROKERS"); v != "" {
		cfg.Analytics.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TI_ANALYTICS_TOPIC"); v != "" {
		cfg.Analytics.Topic = v
	}
	if v := os.Getenv("TI_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TI_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TI_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
