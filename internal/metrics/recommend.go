package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation Prometheus metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "furnish",
			Name:      "recommend_requests_total",
			Help:      "Total number of recommend calls",
		},
		[]string{"status"},
	)

	RecommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "furnish",
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end recommend duration in seconds, including the embedding call",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// CategoryFilterTotal tracks which filter tier served each request.
	// A growing "fallback" count signals catalog/vocabulary drift.
	CategoryFilterTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "furnish",
			Name:      "category_filter_total",
			Help:      "Category filter outcomes by tier",
		},
		[]string{"tier"}, // "unfiltered" / "exact" / "partial" / "fallback"
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers recommendation metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendRequestsTotal)
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(CategoryFilterTotal)
	recMetricsRegistered = true
}
