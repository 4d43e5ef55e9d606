package kpm

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for engine-level observability. Registered once
// globally to avoid duplicate registration errors; all Strategy instances
// share them, labeled by query type.
var (
	queriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpmcalc_queries_total",
			Help: "Total number of spectral queries answered, by query type",
		},
		[]string{"type"},
	)
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kpmcalc_query_duration_seconds",
			Help:    "Wall-clock duration of spectral queries, by query type",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		},
		[]string{"type"},
	)
	momentsComputed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kpmcalc_moments_computed_total",
		Help: "Total number of Chebyshev moments computed across all queries",
	})
)

// observeQuery records one answered query in the Prometheus metrics.
func observeQuery(queryType string, numMoments int, elapsed time.Duration) {
	queriesTotal.WithLabelValues(queryType).Inc()
	queryDuration.WithLabelValues(queryType).Observe(elapsed.Seconds())
	momentsComputed.Add(float64(numMoments))
}
