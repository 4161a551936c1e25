package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Sternrassler/docbatch/pkg/document"
	"gopkg.in/yaml.v3"
)

// DefaultMaxKeys is the backing database's limit for one "key in list" query.
const DefaultMaxKeys = 10

// Memory is an in-process document store.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]map[string]document.Fields
	maxKeys int
}

// NewMemory creates an empty in-memory store with the default key limit.
func NewMemory() *Memory {
	return &Memory{
		docs:    make(map[string]map[string]document.Fields),
		maxKeys: DefaultMaxKeys,
	}
}

// SetMaxKeys changes the per-lookup key limit; 0 disables it.
func (m *Memory) SetMaxKeys(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxKeys = n
}

// Put stores a copy of fields under collection/id.
func (m *Memory) Put(collection, id string, fields document.Fields) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[string]document.Fields)
	}
	m.docs[collection][id] = fields.Clone()
}

// Delete removes a document; deleting a missing document is a no-op.
func (m *Memory) Delete(collection, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs[collection], id)
}

// Len returns the number of documents in collection.
func (m *Memory) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection])
}

// FetchByKeysIn returns the documents of collection whose id is in keys.
func (m *Memory) FetchByKeysIn(ctx context.Context, collection string, keys []string) ([]document.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "lookup", Collection: collection, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := checkKeys("lookup", collection, keys, m.maxKeys); err != nil {
		return nil, err
	}

	docs := m.docs[collection]
	out := make([]document.Raw, 0, len(keys))
	for _, k := range keys {
		if fields, ok := docs[k]; ok {
			out = append(out, document.Raw{ID: k, Fields: fields.Clone()})
		}
	}
	return out, nil
}

// LoadFixtures reads a YAML document of the form
//
//	products:
//	  p1: {title: Lamp, price: 12}
//	users:
//	  u1: {name: Ada}
//
// into m and returns the number of documents loaded.
func (m *Memory) LoadFixtures(r io.Reader) (int, error) {
	var raw map[string]map[string]map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("decode fixtures: %w", err)
	}

	n := 0
	for collection, docs := range raw {
		for id, body := range docs {
			fields, err := document.FieldsFromAny(body)
			if err != nil {
				return n, fmt.Errorf("fixture %s/%s: %w", collection, id, err)
			}
			m.Put(collection, id, fields)
			n++
		}
	}
	return n, nil
}
