package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Embedding Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "kind", "status"}, // kind: "text" / "image"
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gifrank",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model", "kind"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"provider", "model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"provider", "model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gifrank",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"kind", "result"}, // "text"/"media", "hit"/"miss"
	)

	MediaFramesDecoded = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gifrank",
			Name:      "media_frames_decoded",
			Help:      "Frames sampled per media resource",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
	)
)

var registerOnce sync.Once

// Register registers the domain Prometheus metrics. Must be called once from main;
// repeated calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			MediaFramesDecoded,
			ProviderRequestsTotal,
			ProviderRequestDuration,
			GatewayCacheTotal,
			GatewayThrottleWait,
			CandidateFailuresTotal,
			RankOutcomesTotal,
			RankCandidates,
			TermsGeneratedTotal,
		)
	})
}
