package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval pipeline Prometheus metrics.
var (
	LegRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "retrieval_leg_requests_total",
			Help:      "Total retrieval leg executions",
		},
		[]string{"strategy", "status"}, // status: success / error / timeout / skipped
	)

	LegDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexsearch",
			Name:      "retrieval_leg_duration_seconds",
			Help:      "Retrieval leg duration in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"strategy"},
	)

	PartialDegradationTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "retrieval_partial_degradation_total",
			Help:      "Requests fused from fewer legs than were dispatched",
		},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "query_cache_total",
			Help:      "Query cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "expired"
	)

	QueryCacheEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "query_cache_evictions_total",
			Help:      "Entries evicted from the query cache by the capacity bound",
		},
	)

	GuardrailRefusalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "guardrail_refusals_total",
			Help:      "Queries refused by the guardrail gate",
		},
		[]string{"reason"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "embedding_requests_total",
			Help:      "Total embedding provider requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lexsearch",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lexsearch",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)
)

// RegisterRetrievalMetrics registers all retrieval collectors explicitly (no init()).
func RegisterRetrievalMetrics() {
	prometheus.MustRegister(
		LegRequestsTotal,
		LegDuration,
		PartialDegradationTotal,
		QueryCacheTotal,
		QueryCacheEvictionsTotal,
		GuardrailRefusalsTotal,
		EmbeddingRequestsTotal,
		EmbeddingRequestDuration,
		EmbeddingTokensTotal,
		EmbeddingCacheTotal,
	)
}
