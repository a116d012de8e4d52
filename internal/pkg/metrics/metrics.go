// Package metrics provides Prometheus metrics for the resizer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts processed transform requests by outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resizer",
			Name:      "requests_total",
			Help:      "Total number of transform requests",
		},
		[]string{"outcome"},
	)

	// RequestDuration measures end-to-end dispatch duration.
	RequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "resizer",
			Name:      "request_duration_seconds",
			Help:      "Duration of transform dispatch in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// StrategyAttemptsTotal counts strategy executions by result.
	StrategyAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resizer",
			Name:      "strategy_attempts_total",
			Help:      "Total number of strategy execution attempts",
		},
		[]string{"strategy", "result"},
	)

	// CacheEventsTotal counts hits, misses and evictions per cache.
	CacheEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "resizer",
			Name:      "cache_events_total",
			Help:      "Total number of cache events",
		},
		[]string{"cache", "event"},
	)
)

// RecordRequest records one dispatched request.
func RecordRequest(outcome string, duration float64) {
	RequestsTotal.WithLabelValues(outcome).Inc()
	RequestDuration.Observe(duration)
}

// RecordAttempt records one strategy execution attempt.
func RecordAttempt(strategy, result string) {
	StrategyAttemptsTotal.WithLabelValues(strategy, result).Inc()
}

// RecordCacheEvent records a cache hit, miss or eviction.
func RecordCacheEvent(cache, event string) {
	CacheEventsTotal.WithLabelValues(cache, event).Inc()
}
