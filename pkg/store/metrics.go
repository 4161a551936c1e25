package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StoreErrors tracks store operation errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docbatch_store_errors_total",
			Help: "Total number of document store operation errors",
		},
		[]string{"operation"}, // "mget", "set", "delete"
	)

	// StoreLookupKeys tracks how many keys each lookup carried
	StoreLookupKeys = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "docbatch_store_lookup_keys",
			Help:    "Number of keys per document store lookup",
			Buckets: []float64{1, 2, 5, 10, 20, 50},
		},
	)

	// retriesTotal tracks retry attempts by error class
	retriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docbatch_store_retries_total",
			Help: "Total number of store lookup retry attempts by error class",
		},
		[]string{"error_class"},
	)

	// retryExhaustedTotal tracks lookups that ran out of attempts
	retryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docbatch_store_retry_exhausted_total",
			Help: "Total number of store lookups that exhausted their retry attempts",
		},
		[]string{"error_class"},
	)
)
