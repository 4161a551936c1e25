// Package fetch resolves large identifier sets against a document store whose
// "key in list" lookup accepts at most a fixed number of keys per call.
//
// Example usage:
//
//	f := fetch.New(store, fetch.DefaultConfig())
//	products := f.Fetch(ctx, "products", ids)
//	ordered := batch.Project(products, ids)
//
// The fetcher:
//   - Deduplicates identifiers, keeping first-occurrence order
//   - Splits them into chunks of at most BatchSize keys
//   - Looks every chunk up concurrently (one goroutine per chunk by default)
//   - Normalizes each document so its "id" field is the key it was fetched by
//   - Logs and skips failed chunks, returning whatever else resolved
//
// Fetch has no error return. Identifiers whose chunk failed are absent from
// the result just like identifiers with no document; FetchReport tells the
// two apart for callers that need it. Retries are not done here; wrap the
// store with store.NewRetrying instead.
package fetch
