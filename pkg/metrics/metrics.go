// Package metrics exposes the Prometheus registry used by docbatch.
// All metrics are defined in their respective packages (fetch, store)
// via promauto to keep those packages self-contained.
//
// This package provides the scrape handler and a reference of every metric.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by docbatch.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the registry scraped by Handler.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler serving the metrics in text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Batch Fetch Metrics (pkg/fetch):
//   - docbatch_chunks_total{collection, outcome} (Counter): Chunk lookups, outcome "ok" or "failed"
//   - docbatch_chunk_duration_seconds{collection} (Histogram): Per-chunk lookup latency
//   - docbatch_documents_total{collection, status} (Counter): Unique ids by "found", "not_found", "failed"
//   - docbatch_fetch_duration_seconds{collection} (Histogram): Whole batch fetch latency
//
// Store Metrics (pkg/store):
//   - docbatch_store_errors_total{operation} (Counter): Redis operation errors ("mget", "set", "delete")
//   - docbatch_store_lookup_keys (Histogram): Keys per store lookup
//   - docbatch_store_retries_total{error_class} (Counter): Retry attempts by error class
//   - docbatch_store_retry_exhausted_total{error_class} (Counter): Lookups that exhausted retries
//
// Example Prometheus Queries:
//
//   # Chunk failure ratio
//   sum(rate(docbatch_chunks_total{outcome="failed"}[5m])) /
//   sum(rate(docbatch_chunks_total[5m]))
//
//   # Share of requested ids lost to failures
//   sum(rate(docbatch_documents_total{status="failed"}[5m])) /
//   sum(rate(docbatch_documents_total[5m]))
//
//   # P95 chunk latency
//   histogram_quantile(0.95, rate(docbatch_chunk_duration_seconds_bucket[5m]))
