// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TurnsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_processed_total",
			Help: "Total number of turns processed, by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	AdapterCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_adapter_calls_total",
			Help: "Total number of search adapter calls, by source and status",
		},
		[]string{"source", "status"},
	)

	AdapterDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_adapter_duration_seconds",
			Help: "Duration of search adapter calls in seconds",
		},
		[]string{"source"},
	)

	RankingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "assistant_ranking_duration_seconds",
			Help: "Duration of relevance ranking in seconds",
		},
	)

	CacheOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_cache_ops_total",
			Help: "Cache lookups by cache name and result (hit/miss/error)",
		},
		[]string{"cache", "result"},
	)
)
