package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for batch fetch operations.
var (
	chunksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docbatch_chunks_total",
		Help: "Total chunk lookups by collection and outcome",
	}, []string{"collection", "outcome"}) // "ok", "failed"

	chunkDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docbatch_chunk_duration_seconds",
		Help:    "Chunk lookup duration in seconds by collection",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"collection"})

	documentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "docbatch_documents_total",
		Help: "Unique identifiers resolved by collection and status",
	}, []string{"collection", "status"}) // "found", "not_found", "failed"

	fetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "docbatch_fetch_duration_seconds",
		Help:    "Whole batch fetch duration in seconds by collection",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
	}, []string{"collection"})
)
