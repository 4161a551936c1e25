// Package store provides document store adapters that satisfy the batch
// fetcher's lookup capability, plus an opt-in retrying decorator.
//
// # Adapters
//
//   - Memory: concurrency-safe in-process store, seeded with Put or
//     LoadFixtures (YAML). Used by the CLI demo mode and tests.
//   - Redis: every document is a JSON body under "doc:<collection>:<id>";
//     a lookup is a single MGET.
//
// Both enforce a per-lookup key limit (DefaultMaxKeys) and reject larger
// lookups with ErrTooManyKeys, the same way the backing document database
// rejects oversized "key in list" queries.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	docs := store.NewRedis(redisClient)
//
//	f := fetch.New(docs, fetch.DefaultConfig())
//	products := f.Fetch(ctx, "products", ids)
//
// # Retries
//
// The batch fetcher never retries. Callers that want retries wrap the store:
//
//	retrying := store.NewRetrying(docs, store.DefaultRetryConfig())
//	f := fetch.New(retrying, fetch.DefaultConfig())
//
// Only ErrorClassTransient failures are retried.
package store
