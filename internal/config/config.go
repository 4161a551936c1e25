// Package config loads docbatch configuration from an optional YAML file and
// DOCBATCH_* environment variables, in that order of precedence (env wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/docbatch/pkg/fetch"
	"github.com/Sternrassler/docbatch/pkg/logging"
	"github.com/Sternrassler/docbatch/pkg/store"
)

// Config is the full process configuration.
type Config struct {
	Log      LogConfig    `yaml:"log"`
	Redis    RedisConfig  `yaml:"redis"`
	Fetch    FetchConfig  `yaml:"fetch"`
	Retry    RetryConfig  `yaml:"retry"`
	Server   ServerConfig `yaml:"server"`
	Fixtures string       `yaml:"fixtures"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// RedisConfig selects the Redis backend. An empty Addr means the in-memory
// store seeded from Fixtures is used instead.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type FetchConfig struct {
	BatchSize      int           `yaml:"batch_size"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	Timeout        time.Duration `yaml:"timeout"`
}

// RetryConfig controls the opt-in retrying store decorator.
type RetryConfig struct {
	Enabled        bool          `yaml:"enabled"`
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	fc := fetch.DefaultConfig()
	rc := store.DefaultRetryConfig()
	return Config{
		Log: LogConfig{Level: string(logging.LevelInfo)},
		Fetch: FetchConfig{
			BatchSize:      fc.BatchSize,
			MaxConcurrency: fc.MaxConcurrency,
			Timeout:        fc.Timeout,
		},
		Retry: RetryConfig{
			Enabled:        false,
			MaxAttempts:    rc.MaxAttempts,
			InitialBackoff: rc.InitialBackoff,
			MaxBackoff:     rc.MaxBackoff,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
	}
}

// Load returns Default overlaid with the YAML file at path (if path is not
// empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DOCBATCH_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("DOCBATCH_LOG_LEVEL", &c.Log.Level)
	boolean("DOCBATCH_LOG_PRETTY", &c.Log.Pretty)
	str("DOCBATCH_REDIS_ADDR", &c.Redis.Addr)
	str("DOCBATCH_REDIS_PASSWORD", &c.Redis.Password)
	integer("DOCBATCH_REDIS_DB", &c.Redis.DB)
	integer("DOCBATCH_BATCH_SIZE", &c.Fetch.BatchSize)
	integer("DOCBATCH_MAX_CONCURRENCY", &c.Fetch.MaxConcurrency)
	duration("DOCBATCH_FETCH_TIMEOUT", &c.Fetch.Timeout)
	boolean("DOCBATCH_RETRY_ENABLED", &c.Retry.Enabled)
	integer("DOCBATCH_RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts)
	str("DOCBATCH_ADDR", &c.Server.Addr)
	str("DOCBATCH_FIXTURES", &c.Fixtures)

	if len(errs) > 0 {
		return fmt.Errorf("environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate rejects settings the fetcher cannot run with.
func (c Config) Validate() error {
	if c.Fetch.BatchSize < 1 {
		return fmt.Errorf("fetch.batch_size must be >= 1 (got %d)", c.Fetch.BatchSize)
	}
	if c.Fetch.MaxConcurrency < 0 {
		return fmt.Errorf("fetch.max_concurrency must be >= 0 (got %d)", c.Fetch.MaxConcurrency)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must be >= 0 (got %s)", c.Fetch.Timeout)
	}
	if c.Retry.Enabled && c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1 (got %d)", c.Retry.MaxAttempts)
	}
	return nil
}

// FetcherConfig converts to the fetcher's configuration.
func (c Config) FetcherConfig() fetch.Config {
	return fetch.Config{
		BatchSize:      c.Fetch.BatchSize,
		MaxConcurrency: c.Fetch.MaxConcurrency,
		Timeout:        c.Fetch.Timeout,
	}
}

// StoreRetryConfig converts to the retry decorator's configuration.
func (c Config) StoreRetryConfig() store.RetryConfig {
	rc := store.DefaultRetryConfig()
	rc.MaxAttempts = c.Retry.MaxAttempts
	rc.InitialBackoff = c.Retry.InitialBackoff
	rc.MaxBackoff = c.Retry.MaxBackoff
	return rc
}

// LoggingConfig converts to the logging package's configuration.
func (c Config) LoggingConfig() logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = logging.LogLevel(c.Log.Level)
	lc.Pretty = c.Log.Pretty
	return lc
}
