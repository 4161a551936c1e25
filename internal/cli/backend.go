package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/docbatch/internal/config"
	"github.com/Sternrassler/docbatch/pkg/fetch"
	"github.com/Sternrassler/docbatch/pkg/store"
)

// backend is the assembled store stack for one process.
type backend struct {
	lookup store.Lookup
	pinger interface {
		Ping(ctx context.Context) error
	}
	close func() error
}

// openBackend builds the Redis store when an address is configured and the
// fixtures-seeded memory store otherwise; retries wrap either one if enabled.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	b := &backend{close: func() error { return nil }}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		docs := store.NewRedis(client)
		if err := docs.Ping(ctx); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")

		b.lookup = docs
		b.pinger = docs
		b.close = client.Close
	} else {
		mem := store.NewMemory()
		if cfg.Fixtures != "" {
			f, err := os.Open(cfg.Fixtures)
			if err != nil {
				return nil, fmt.Errorf("open fixtures: %w", err)
			}
			n, err := mem.LoadFixtures(f)
			f.Close()
			if err != nil {
				return nil, err
			}
			log.Info().Str("path", cfg.Fixtures).Int("documents", n).Msg("Loaded fixtures")
		}
		b.lookup = mem
	}

	if cfg.Retry.Enabled {
		b.lookup = store.NewRetrying(b.lookup, cfg.StoreRetryConfig())
	}
	return b, nil
}

func (b *backend) fetcher(cfg *config.Config) *fetch.Fetcher {
	return fetch.New(b.lookup, cfg.FetcherConfig())
}
