// Package batch provides the pure slice helpers used around batched lookups:
// first-occurrence deduplication, fixed-size chunking and order-preserving
// projection of a lookup map back onto a key list.
package batch

import "fmt"

// Dedup returns items with every repeat after the first occurrence removed.
// Relative order is preserved. The result is never nil.
func Dedup[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Chunk partitions items into consecutive groups of at most size elements.
// Only the last group may be shorter. Empty input yields zero groups.
//
// Each group aliases items but has its capacity clipped, so appending to one
// group never overwrites the next. Chunk panics if size < 1.
func Chunk[T any](items []T, size int) [][]T {
	if size < 1 {
		panic(fmt.Sprintf("batch: chunk size must be >= 1 (got %d)", size))
	}

	chunks := make([][]T, 0, ChunkCount(len(items), size))
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// ChunkCount returns how many groups Chunk produces for n items.
func ChunkCount(n, size int) int {
	if n <= 0 || size < 1 {
		return 0
	}
	return (n + size - 1) / size
}

// Project looks every key up in m and returns the values in key order.
// Keys missing from m yield the zero value of V, which is nil for map,
// slice and pointer types. The result always has len(keys) elements.
func Project[K comparable, V any](m map[K]V, keys []K) []V {
	out := make([]V, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// ProjectPtr is Project for value types whose zero value is meaningful:
// present keys yield a pointer to a copy of the value, missing keys yield nil.
func ProjectPtr[K comparable, V any](m map[K]V, keys []K) []*V {
	out := make([]*V, len(keys))
	for i, k := range keys {
		if v, ok := m[k]; ok {
			out[i] = &v
		}
	}
	return out
}
