package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/docbatch/pkg/batch"
	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the key limit of the store's "key in list" lookup.
const DefaultBatchSize = 10

// Config holds batch fetcher configuration
type Config struct {
	// BatchSize is the maximum number of keys sent in one store lookup
	BatchSize int
	// MaxConcurrency caps parallel store calls; 0 means one goroutine per chunk
	MaxConcurrency int
	// Timeout per chunk lookup; 0 disables the per-chunk deadline
	Timeout time.Duration
}

// DefaultConfig returns the configuration matching the store's lookup limit
func DefaultConfig() Config {
	return Config{
		BatchSize:      DefaultBatchSize,
		MaxConcurrency: 0,
		Timeout:        15 * time.Second,
	}
}

// Store is the lookup capability the fetcher needs from a document store.
// Implementations receive at most BatchSize distinct keys and must only return
// documents for keys they were given. Missing keys are not an error.
type Store interface {
	FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error)
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithErrorLogger overrides where failed chunks are reported.
func WithErrorLogger(l ErrorLogger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.errors = l
		}
	}
}

// WithLogger sets the logger used for progress events.
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// Fetcher fans a lookup out over chunks and merges what came back.
type Fetcher struct {
	store  Store
	config Config
	logger zerolog.Logger
	errors ErrorLogger
}

// New creates a new batch fetcher
func New(store Store, config Config, opts ...Option) *Fetcher {
	if store == nil {
		panic("store cannot be nil")
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.MaxConcurrency < 0 {
		config.MaxConcurrency = 0
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	f := &Fetcher{
		store:  store,
		config: config,
		logger: log.With().Str("component", "batch-fetch").Logger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.errors == nil {
		f.errors = NewZerologErrorLogger(f.logger)
	}
	return f
}

// Config returns the effective configuration.
func (f *Fetcher) Config() Config {
	return f.config
}

// Fetch resolves ids in collection and returns the documents that were found.
//
// Fetch never fails: a chunk whose lookup errors is logged and its identifiers
// are simply absent from the result, exactly like identifiers that do not
// exist. An empty id list returns an empty result without touching the store.
func (f *Fetcher) Fetch(ctx context.Context, collection string, ids []string) document.Result {
	return f.FetchReport(ctx, collection, ids).Records
}

// chunkResult is what one chunk contributes to the final merge.
type chunkResult struct {
	keys    []string
	records document.Result
	err     error
}

// FetchReport behaves like Fetch and additionally reports, per unique
// identifier, whether it was found, not found, or lost to a failed chunk.
func (f *Fetcher) FetchReport(ctx context.Context, collection string, ids []string) Report {
	unique := batch.Dedup(ids)
	if len(unique) == 0 {
		return Report{
			Records: document.Result{},
			Status:  map[string]Status{},
		}
	}

	start := time.Now()
	chunks := batch.Chunk(unique, f.config.BatchSize)
	results := make([]chunkResult, len(chunks))

	var g errgroup.Group
	if f.config.MaxConcurrency > 0 {
		g.SetLimit(f.config.MaxConcurrency)
	}
	for i, keys := range chunks {
		g.Go(func() error {
			results[i] = f.fetchChunk(ctx, collection, i+1, keys)
			return nil
		})
	}
	// Chunk goroutines never return an error; failures travel in results.
	_ = g.Wait()

	report := Report{
		Records: make(document.Result, len(unique)),
		Status:  make(map[string]Status, len(unique)),
		Chunks:  len(chunks),
	}
	for _, res := range results {
		report.merge(res)
	}

	found := len(report.Records)
	failed := report.failedCount()
	documentsTotal.WithLabelValues(collection, string(StatusFound)).Add(float64(found))
	documentsTotal.WithLabelValues(collection, string(StatusFailed)).Add(float64(failed))
	documentsTotal.WithLabelValues(collection, string(StatusNotFound)).Add(float64(len(unique) - found - failed))
	fetchDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())

	event := f.logger.Info()
	if report.FailedChunks > 0 {
		event = f.logger.Warn()
	}
	event.
		Str("collection", collection).
		Int("requested", len(ids)).
		Int("unique", len(unique)).
		Int("chunks", report.Chunks).
		Int("failed_chunks", report.FailedChunks).
		Int("found", found).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return report
}

// fetchChunk performs one store lookup and normalizes its documents.
// The returned records are only set on a clean success.
func (f *Fetcher) fetchChunk(ctx context.Context, collection string, index int, keys []string) chunkResult {
	res := chunkResult{keys: keys}
	start := time.Now()
	defer func() {
		chunkDuration.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	}()

	raws, err := f.lookup(ctx, collection, keys)
	if err != nil {
		res.err = err
		chunksTotal.WithLabelValues(collection, "failed").Inc()
		f.errors.LogBatchError(ctx, BatchContext{
			Collection: collection,
			BatchIndex: index,
			Keys:       keys,
		}, err)
		return res
	}

	requested := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		requested[k] = struct{}{}
	}

	records := make(document.Result, len(raws))
	for _, raw := range raws {
		if _, ok := requested[raw.ID]; !ok {
			f.logger.Warn().
				Str("collection", collection).
				Int("batch_index", index).
				Str("id", raw.ID).
				Msg("Store returned unrequested document - dropping")
			continue
		}
		records[raw.ID] = document.Normalize(raw)
	}
	res.records = records
	chunksTotal.WithLabelValues(collection, "ok").Inc()

	f.logger.Debug().
		Str("collection", collection).
		Int("batch_index", index).
		Int("keys", len(keys)).
		Int("found", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Chunk fetched")

	return res
}

// lookup calls the store under the per-chunk deadline and converts a panic
// inside the store into an ordinary chunk failure.
func (f *Fetcher) lookup(ctx context.Context, collection string, keys []string) (raws []document.Raw, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.config.Timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			raws, err = nil, fmt.Errorf("store panic: %v", r)
		}
	}()

	return f.store.FetchByKeysIn(ctx, collection, keys)
}
