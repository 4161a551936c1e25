package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/redis/go-redis/v9"
)

// Redis is a document store backed by Redis string keys holding JSON bodies.
type Redis struct {
	redis   *redis.Client
	maxKeys int
}

// NewRedis creates a new Redis document store.
func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{
		redis:   redisClient,
		maxKeys: DefaultMaxKeys,
	}
}

// SetMaxKeys changes the per-lookup key limit; 0 disables it.
func (r *Redis) SetMaxKeys(n int) {
	r.maxKeys = n
}

// FetchByKeysIn loads every document of collection named in keys with one
// MGET. Keys without a stored body are skipped. Any body that is not a JSON
// object fails the whole lookup with ErrInvalidDocument.
func (r *Redis) FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error) {
	if err := checkKeys("mget", collection, keys, r.maxKeys); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}
	StoreLookupKeys.Observe(float64(len(keys)))

	values, err := r.redis.MGet(ctx, keysFor(collection, keys)...).Result()
	if err != nil {
		StoreErrors.WithLabelValues("mget").Inc()
		return nil, &Error{Op: "mget", Collection: collection, Err: err}
	}

	out := make([]document.Raw, 0, len(values))
	for i, val := range values {
		if val == nil {
			continue
		}

		body, ok := val.(string)
		if !ok {
			StoreErrors.WithLabelValues("mget").Inc()
			return nil, &Error{
				Op:         "mget",
				Collection: collection,
				Err:        fmt.Errorf("%w: %s has reply type %T", ErrInvalidDocument, keys[i], val),
			}
		}

		fields, err := document.DecodeFields([]byte(body))
		if err != nil {
			StoreErrors.WithLabelValues("mget").Inc()
			return nil, &Error{
				Op:         "mget",
				Collection: collection,
				Err:        fmt.Errorf("%w: %s: %v", ErrInvalidDocument, keys[i], err),
			}
		}
		out = append(out, document.Raw{ID: keys[i], Fields: fields})
	}
	return out, nil
}

// Put stores fields as the body of collection/id.
// It seeds data for the read path; the batch layer itself never writes.
func (r *Redis) Put(ctx context.Context, collection, id string, fields document.Fields) error {
	if fields == nil {
		fields = document.Fields{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal document: %w", err)
	}

	if err := r.redis.Set(ctx, Key{Collection: collection, ID: id}.String(), data, 0).Err(); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return &Error{Op: "set", Collection: collection, Err: err}
	}
	return nil
}

// Delete removes collection/id.
func (r *Redis) Delete(ctx context.Context, collection, id string) error {
	if err := r.redis.Del(ctx, Key{Collection: collection, ID: id}.String()).Err(); err != nil {
		StoreErrors.WithLabelValues("delete").Inc()
		return &Error{Op: "delete", Collection: collection, Err: err}
	}
	return nil
}

// Ping checks connectivity to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return &Error{Op: "ping", Err: err}
	}
	return nil
}
