package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/docbatch/internal/testutil"
	"github.com/Sternrassler/docbatch/pkg/batch"
	"github.com/Sternrassler/docbatch/pkg/document"
	"github.com/rs/zerolog"
)

// recordingLogger collects LogBatchError calls.
type recordingLogger struct {
	mu      sync.Mutex
	batches []BatchContext
	errs    []error
}

func (r *recordingLogger) LogBatchError(_ context.Context, b BatchContext, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
	r.errs = append(r.errs, err)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func newTestFetcher(store Store, cfg Config) (*Fetcher, *recordingLogger) {
	rec := &recordingLogger{}
	f := New(store, cfg,
		WithLogger(zerolog.Nop()),
		WithErrorLogger(rec),
	)
	return f, rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.MaxConcurrency != 0 {
		t.Errorf("MaxConcurrency = %d, want 0", cfg.MaxConcurrency)
	}
	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
}

func TestNew_Defaults(t *testing.T) {
	f := New(testutil.NewFakeStore(), Config{BatchSize: 0, MaxConcurrency: -3, Timeout: -time.Second})
	cfg := f.Config()

	if cfg.BatchSize != DefaultBatchSize {
		t.Errorf("BatchSize = %d, want %d", cfg.BatchSize, DefaultBatchSize)
	}
	if cfg.MaxConcurrency != 0 {
		t.Errorf("MaxConcurrency = %d, want 0", cfg.MaxConcurrency)
	}
	if cfg.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", cfg.Timeout)
	}
}

func TestNew_PanicsOnNilStore(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("New should panic with nil store")
		}
	}()
	New(nil, DefaultConfig())
}

func TestFetch_EmptyInputSkipsStore(t *testing.T) {
	store := testutil.NewFakeStore()
	f, _ := newTestFetcher(store, DefaultConfig())

	for _, ids := range [][]string{nil, {}} {
		result := f.Fetch(context.Background(), "products", ids)
		if result == nil {
			t.Fatal("Fetch() returned nil result")
		}
		if len(result) != 0 {
			t.Errorf("len(result) = %d, want 0", len(result))
		}
	}

	if store.CallCount() != 0 {
		t.Errorf("store called %d times, want 0", store.CallCount())
	}
}

func TestFetch_ChunksUniqueKeys(t *testing.T) {
	tests := []struct {
		name       string
		unique     int
		repeats    int
		batchSize  int
		wantChunks int
	}{
		{name: "single partial chunk", unique: 3, repeats: 1, batchSize: 10, wantChunks: 1},
		{name: "exact chunk", unique: 10, repeats: 1, batchSize: 10, wantChunks: 1},
		{name: "one over", unique: 11, repeats: 1, batchSize: 10, wantChunks: 2},
		{name: "duplicates collapse", unique: 12, repeats: 3, batchSize: 10, wantChunks: 2},
		{name: "small batch", unique: 7, repeats: 2, batchSize: 3, wantChunks: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := testutil.NewFakeStore()
			ids := store.PutN("products", "p", tt.unique)

			var input []string
			for r := 0; r < tt.repeats; r++ {
				input = append(input, ids...)
			}

			f, rec := newTestFetcher(store, Config{BatchSize: tt.batchSize})
			result := f.Fetch(context.Background(), "products", input)

			if len(result) != tt.unique {
				t.Errorf("len(result) = %d, want %d", len(result), tt.unique)
			}
			if rec.count() != 0 {
				t.Errorf("logged %d failures, want 0", rec.count())
			}

			calls := store.Calls()
			if len(calls) != tt.wantChunks {
				t.Fatalf("store called %d times, want %d", len(calls), tt.wantChunks)
			}

			seen := make(map[string]int)
			for _, c := range calls {
				if len(c.Keys) > tt.batchSize {
					t.Errorf("call with %d keys exceeds batch size %d", len(c.Keys), tt.batchSize)
				}
				for _, k := range c.Keys {
					seen[k]++
				}
			}
			if len(seen) != tt.unique {
				t.Errorf("union of chunk keys has %d ids, want %d", len(seen), tt.unique)
			}
			for k, n := range seen {
				if n != 1 {
					t.Errorf("key %s sent %d times, want 1", k, n)
				}
			}
		})
	}
}

func TestFetch_PartialFailureIsolation(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 25)

	// Chunk 2 holds ids[10:20].
	store.FailKey(ids[10], nil)

	f, rec := newTestFetcher(store, DefaultConfig())
	result := f.Fetch(context.Background(), "products", ids)

	if len(result) != 15 {
		t.Fatalf("len(result) = %d, want 15", len(result))
	}
	for i, id := range ids {
		_, ok := result[id]
		inFailedChunk := i >= 10 && i < 20
		if ok == inFailedChunk {
			t.Errorf("id %s present=%v, want %v", id, ok, !inFailedChunk)
		}
	}

	if rec.count() != 1 {
		t.Fatalf("logged %d failures, want 1", rec.count())
	}
	b := rec.batches[0]
	if b.BatchIndex != 2 {
		t.Errorf("BatchIndex = %d, want 2", b.BatchIndex)
	}
	if b.Collection != "products" {
		t.Errorf("Collection = %q, want products", b.Collection)
	}
	if len(b.Keys) != 10 {
		t.Errorf("len(Keys) = %d, want 10", len(b.Keys))
	}
	if !errors.Is(rec.errs[0], testutil.ErrInjected) {
		t.Errorf("logged error = %v, want ErrInjected", rec.errs[0])
	}
}

func TestFetch_AllChunksFail(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("users", "u", 30)
	store.FailWhen = func(testutil.Call) error { return errors.New("unavailable") }

	f, rec := newTestFetcher(store, DefaultConfig())
	result := f.Fetch(context.Background(), "users", ids)

	if result == nil || len(result) != 0 {
		t.Errorf("result = %v, want empty non-nil", result)
	}
	if rec.count() != 3 {
		t.Errorf("logged %d failures, want 3", rec.count())
	}
}

func TestFetch_IdentifierAuthority(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Put("products", "p1", document.Fields{"id": document.String("stale"), "title": document.String("Lamp")})
	store.Put("products", "p2", nil)
	store.Put("products", "p3", document.Fields{"id": document.Int(42)})

	f, _ := newTestFetcher(store, DefaultConfig())
	result := f.Fetch(context.Background(), "products", []string{"p1", "p2", "p3", "missing"})

	if len(result) != 3 {
		t.Fatalf("len(result) = %d, want 3", len(result))
	}
	for key, rec := range result {
		if rec.ID() != key {
			t.Errorf("record under %q has id %q", key, rec.ID())
		}
	}
	if len(result["p2"]) != 1 {
		t.Errorf("empty body record = %v, want only id", result["p2"])
	}
	if title, _ := result["p1"]["title"].AsString(); title != "Lamp" {
		t.Errorf("title = %q, want Lamp", title)
	}
}

func TestFetch_DuplicateIdentifiers(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Put("products", "id1", document.Fields{"title": document.String("A")})

	f, _ := newTestFetcher(store, DefaultConfig())
	keys := []string{"id1", "id1", "id1"}
	result := f.Fetch(context.Background(), "products", keys)

	calls := store.Calls()
	if len(calls) != 1 || len(calls[0].Keys) != 1 {
		t.Fatalf("calls = %v, want one call with one key", calls)
	}
	if len(result) != 1 {
		t.Fatalf("len(result) = %d, want 1", len(result))
	}

	projected := batch.Project(result, keys)
	if len(projected) != 3 {
		t.Fatalf("len(projected) = %d, want 3", len(projected))
	}
	for i, rec := range projected {
		if rec.ID() != "id1" {
			t.Errorf("projected[%d].ID() = %q, want id1", i, rec.ID())
		}
	}
}

func TestFetch_DropsUnrequestedDocuments(t *testing.T) {
	store := testutil.NewFakeStore()
	store.Put("orders", "o1", document.Fields{"total": document.Int(5)})
	store.Extra = []document.Raw{{ID: "intruder", Fields: document.Fields{"x": document.Bool(true)}}}

	f, _ := newTestFetcher(store, DefaultConfig())
	result := f.Fetch(context.Background(), "orders", []string{"o1", "o2"})

	if _, ok := result["intruder"]; ok {
		t.Error("result contains an identifier that was never requested")
	}
	if len(result) != 1 {
		t.Errorf("len(result) = %d, want 1", len(result))
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 15)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f, rec := newTestFetcher(store, DefaultConfig())
	result := f.Fetch(ctx, "products", ids)

	if len(result) != 0 {
		t.Errorf("len(result) = %d, want 0", len(result))
	}
	if rec.count() != 2 {
		t.Errorf("logged %d failures, want 2", rec.count())
	}
	for _, err := range rec.errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("logged error = %v, want context.Canceled", err)
		}
	}
}

func TestFetch_ChunkTimeout(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 5)
	store.Delay = 200 * time.Millisecond

	f, rec := newTestFetcher(store, Config{BatchSize: 10, Timeout: 10 * time.Millisecond})
	result := f.Fetch(context.Background(), "products", ids)

	if len(result) != 0 {
		t.Errorf("len(result) = %d, want 0", len(result))
	}
	if rec.count() != 1 || !errors.Is(rec.errs[0], context.DeadlineExceeded) {
		t.Errorf("logged %v, want one DeadlineExceeded", rec.errs)
	}
}

func TestFetch_MaxConcurrency(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 50)
	store.Delay = 20 * time.Millisecond

	f, _ := newTestFetcher(store, Config{BatchSize: 5, MaxConcurrency: 2})
	result := f.Fetch(context.Background(), "products", ids)

	if len(result) != 50 {
		t.Errorf("len(result) = %d, want 50", len(result))
	}
	if got := store.MaxInFlight(); got > 2 {
		t.Errorf("max in-flight lookups = %d, want <= 2", got)
	}
}

func TestFetch_UnboundedFanOut(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 40)
	store.Delay = 50 * time.Millisecond

	f, _ := newTestFetcher(store, Config{BatchSize: 10})
	f.Fetch(context.Background(), "products", ids)

	if got := store.MaxInFlight(); got < 2 {
		t.Errorf("max in-flight lookups = %d, want chunks to run concurrently", got)
	}
}

type panickingStore struct{}

func (panickingStore) FetchByKeysIn(context.Context, string, []string) ([]document.Raw, error) {
	panic("boom")
}

func TestFetch_StorePanicBecomesChunkFailure(t *testing.T) {
	f, rec := newTestFetcher(panickingStore{}, DefaultConfig())
	result := f.Fetch(context.Background(), "products", []string{"a", "b"})

	if len(result) != 0 {
		t.Errorf("len(result) = %d, want 0", len(result))
	}
	if rec.count() != 1 || !strings.Contains(rec.errs[0].Error(), "boom") {
		t.Errorf("logged %v, want the panic as an error", rec.errs)
	}
}

func TestFetchReport_Statuses(t *testing.T) {
	store := testutil.NewFakeStore()
	ids := store.PutN("products", "p", 12)
	store.FailKey(ids[11], nil)

	f, _ := newTestFetcher(store, DefaultConfig())
	input := append([]string{"ghost"}, ids...)
	report := f.FetchReport(context.Background(), "products", input)

	if report.Chunks != 2 {
		t.Errorf("Chunks = %d, want 2", report.Chunks)
	}
	if report.FailedChunks != 1 {
		t.Errorf("FailedChunks = %d, want 1", report.FailedChunks)
	}
	if report.Status["ghost"] != StatusNotFound {
		t.Errorf("ghost status = %s, want not_found", report.Status["ghost"])
	}
	if report.Status[ids[0]] != StatusFound {
		t.Errorf("%s status = %s, want found", ids[0], report.Status[ids[0]])
	}

	// Chunk 2 is ids[9:12] because "ghost" took the first slot.
	failed := report.Failed()
	if fmt.Sprint(failed) != fmt.Sprint(ids[9:]) {
		t.Errorf("Failed() = %v, want %v", failed, ids[9:])
	}
	if fmt.Sprint(report.NotFound()) != "[ghost]" {
		t.Errorf("NotFound() = %v, want [ghost]", report.NotFound())
	}
	if len(report.Records) != 9 {
		t.Errorf("len(Records) = %d, want 9", len(report.Records))
	}
	if len(report.Status) != 13 {
		t.Errorf("len(Status) = %d, want 13", len(report.Status))
	}
}

func TestZerologErrorLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewZerologErrorLogger(zerolog.New(buf))

	logger.LogBatchError(context.Background(), BatchContext{
		Collection: "reviews",
		BatchIndex: 3,
		Keys:       []string{"a", "b"},
	}, errors.New("store down"))

	output := buf.String()
	for _, want := range []string{`"level":"warn"`, `"collection":"reviews"`, `"batch_index":3`, `"keys":2`, "store down"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %q, got %q", want, output)
		}
	}
}

func TestErrorLoggerFunc(t *testing.T) {
	var got BatchContext
	fn := ErrorLoggerFunc(func(_ context.Context, b BatchContext, _ error) { got = b })

	store := testutil.NewFakeStore()
	store.FailKey("x", nil)
	f := New(store, DefaultConfig(), WithLogger(zerolog.Nop()), WithErrorLogger(fn))
	f.Fetch(context.Background(), "carts", []string{"x"})

	if got.Collection != "carts" || got.BatchIndex != 1 {
		t.Errorf("ErrorLoggerFunc received %+v", got)
	}
}
