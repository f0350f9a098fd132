package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search provider and gateway metrics.
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "provider_requests_total",
			Help:      "Search provider requests by operation and status",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gifrank",
			Name:      "provider_request_duration_seconds",
			Help:      "Search provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"provider", "operation"},
	)

	GatewayCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "gateway_cache_total",
			Help:      "Gateway result cache hits, misses and shared in-flight calls",
		},
		[]string{"result"}, // "hit" / "miss" / "shared"
	)

	GatewayThrottleWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gifrank",
			Name:      "gateway_throttle_wait_seconds",
			Help:      "Time spent waiting for the outbound request interval",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)

// Ranking pipeline metrics.
var (
	CandidateFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "candidate_failures_total",
			Help:      "Candidates dropped from ranking by failure stage",
		},
		[]string{"stage"}, // "fetch" / "decode" / "embed" / "timeout" / "vector"
	)

	RankOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "rank_outcomes_total",
			Help:      "Ranking results by outcome and reason",
		},
		[]string{"outcome", "reason"},
	)

	RankCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gifrank",
			Name:      "rank_candidates",
			Help:      "Deduplicated candidates per ranking request",
			Buckets:   []float64{0, 5, 10, 20, 40, 80, 160},
		},
	)

	TermsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "terms_generated_total",
			Help:      "Search term generation runs by generator",
		},
		[]string{"generator"}, // "llm" / "rules" / "fallback"
	)
)
