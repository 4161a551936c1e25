// Package testutil provides testing utilities for the batch fetch layer.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Sternrassler/docbatch/pkg/document"
)

// ErrInjected is the default error returned by a scripted failure.
var ErrInjected = errors.New("injected store failure")

// Call records one FetchByKeysIn invocation.
type Call struct {
	Collection string
	Keys       []string
}

// FakeStore is a configurable in-memory document store for testing.
// It records every lookup and can be scripted to fail, stall or return
// documents that were not asked for.
type FakeStore struct {
	mu    sync.RWMutex
	docs  map[string]map[string]document.Fields
	fail  map[string]error
	calls []Call

	// Delay is applied to every lookup, honoring context cancellation.
	Delay time.Duration

	// Extra documents are appended to every successful lookup result.
	Extra []document.Raw

	// FailWhen, if set, decides per call whether the lookup should fail.
	FailWhen func(call Call) error

	inFlight    int
	maxInFlight int
}

// NewFakeStore creates an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		docs: make(map[string]map[string]document.Fields),
		fail: make(map[string]error),
	}
}

// Put adds or replaces a document.
func (s *FakeStore) Put(collection, id string, fields document.Fields) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]document.Fields)
	}
	s.docs[collection][id] = fields
}

// PutN adds n documents with ids prefix0..prefix(n-1) and returns the ids.
func (s *FakeStore) PutN(collection, prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%02d", prefix, i)
		s.Put(collection, ids[i], document.Fields{"name": document.String("doc " + ids[i])})
	}
	return ids
}

// FailKey makes any lookup containing id fail with err (ErrInjected if nil).
func (s *FakeStore) FailKey(id string, err error) {
	if err == nil {
		err = ErrInjected
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[id] = err
}

// FetchByKeysIn implements the store lookup capability.
func (s *FakeStore) FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error) {
	call := Call{Collection: collection, Keys: append([]string(nil), keys...)}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	if s.FailWhen != nil {
		if err := s.FailWhen(call); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, k := range keys {
		if err, ok := s.fail[k]; ok {
			return nil, err
		}
	}

	var out []document.Raw
	for _, k := range keys {
		if fields, ok := s.docs[collection][k]; ok {
			out = append(out, document.Raw{ID: k, Fields: fields})
		}
	}
	out = append(out, s.Extra...)
	return out, nil
}

// Calls returns a copy of the recorded lookups.
func (s *FakeStore) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Call(nil), s.calls...)
}

// CallCount returns the number of lookups made.
func (s *FakeStore) CallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// MaxInFlight returns the highest number of concurrent lookups observed.
func (s *FakeStore) MaxInFlight() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxInFlight
}

// SortedCalls returns the recorded lookups ordered by their first key,
// which makes assertions independent of goroutine scheduling.
func (s *FakeStore) SortedCalls() []Call {
	calls := s.Calls()
	sort.Slice(calls, func(i, j int) bool {
		if len(calls[i].Keys) == 0 || len(calls[j].Keys) == 0 {
			return len(calls[i].Keys) < len(calls[j].Keys)
		}
		return calls[i].Keys[0] < calls[j].Keys[0]
	})
	return calls
}

// Reset clears all recorded calls.
func (s *FakeStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
	s.maxInFlight = 0
}
