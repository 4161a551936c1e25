// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"

	// LevelDisabled turns logging off.
	LevelDisabled LogLevel = "disabled"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel `yaml:"level"`

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool `yaml:"pretty"`

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer `yaml:"-"`
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger and returns it.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.DurationFieldUnit = time.Millisecond

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ParseLevel converts a LogLevel to zerolog.Level. Unknown values map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(string(level))) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: per-chunk detail
//   - Chunk lookups (batch_index, keys, found, duration)
//   - Retry backoff decisions
//
// Info: normal operation
//   - Completed batch fetches without failures
//   - Lookups that succeeded after a retry
//   - Server startup/shutdown
//
// Warn: degraded but still answering
//   - Failed chunks (identifiers omitted from the result)
//   - Documents returned by the store that were never requested
//   - Exhausted retries
//
// Error: the process cannot do its job
//   - Store unreachable at startup
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package (batch-fetch, store-retry, server)
//   - collection: document collection name
//   - batch_index: 1-based chunk number within one fetch
//   - keys: number of keys in the chunk
//   - requested / unique / found: identifier counts for a fetch
//   - failed_chunks: chunks whose lookup failed
//   - duration: elapsed time in milliseconds
