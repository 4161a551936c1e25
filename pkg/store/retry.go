package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sethvargo/go-retry"
)

// Lookup is the multi-key read every store adapter implements.
type Lookup interface {
	FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error)
}

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial lookup).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff caps a single backoff wait.
	MaxBackoff time.Duration

	// JitterPercent randomizes each wait by up to this percentage.
	JitterPercent uint64
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		JitterPercent:  20,
	}
}

// Retrying wraps a Lookup and retries transient failures with exponential
// backoff. Invalid requests and context cancellation fail immediately.
type Retrying struct {
	next   Lookup
	config RetryConfig
	logger zerolog.Logger
}

// NewRetrying creates a retrying decorator around next.
func NewRetrying(next Lookup, config RetryConfig) *Retrying {
	if next == nil {
		panic("lookup cannot be nil")
	}
	def := DefaultRetryConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = def.MaxAttempts
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = def.InitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = config.InitialBackoff
	}
	if config.JitterPercent > 100 {
		config.JitterPercent = 100
	}
	return &Retrying{
		next:   next,
		config: config,
		logger: log.With().Str("component", "store-retry").Logger(),
	}
}

// Config returns the effective retry configuration.
func (r *Retrying) Config() RetryConfig {
	return r.config
}

func (r *Retrying) backoff() retry.Backoff {
	b := retry.NewExponential(r.config.InitialBackoff)
	b = retry.WithCappedDuration(r.config.MaxBackoff, b)
	if r.config.JitterPercent > 0 {
		b = retry.WithJitterPercent(r.config.JitterPercent, b)
	}
	return retry.WithMaxRetries(uint64(r.config.MaxAttempts-1), b)
}

// FetchByKeysIn implements Lookup.
func (r *Retrying) FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error) {
	var (
		raws     []document.Raw
		attempt  int
		lastErr  error
		errClass ErrorClass
	)

	err := retry.Do(ctx, r.backoff(), func(ctx context.Context) error {
		attempt++
		var err error
		raws, err = r.next.FetchByKeysIn(ctx, collection, keys)
		if err == nil {
			if attempt > 1 {
				r.logger.Info().
					Str("collection", collection).
					Int("attempt", attempt).
					Msg("Lookup succeeded after retry")
			}
			return nil
		}

		lastErr = err
		errClass = Classify(err)
		if !shouldRetry(errClass) {
			return err
		}
		if attempt < r.config.MaxAttempts {
			retriesTotal.WithLabelValues(string(errClass)).Inc()
			r.logger.Debug().
				Err(err).
				Str("collection", collection).
				Int("attempt", attempt).
				Msg("Retrying lookup after backoff")
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return raws, nil
	}

	if !shouldRetry(errClass) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	retryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
	r.logger.Warn().
		Err(lastErr).
		Str("collection", collection).
		Int("max_attempts", r.config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, attempt, lastErr)
}
