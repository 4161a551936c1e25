package store

import "strings"

// KeyPrefix namespaces every document key in Redis.
const KeyPrefix = "doc"

// Key identifies one stored document.
type Key struct {
	// Collection is the logical collection name (e.g. "products").
	Collection string

	// ID is the document identifier within the collection.
	ID string
}

// String generates the Redis key for the document.
// Format: doc:collection:id
//
// Example:
//
//	doc:products:p-1001
func (k Key) String() string {
	return strings.Join([]string{KeyPrefix, strings.Trim(k.Collection, ":"), k.ID}, ":")
}

// keysFor builds the Redis keys for ids within collection, in order.
func keysFor(collection string, ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = Key{Collection: collection, ID: id}.String()
	}
	return keys
}
