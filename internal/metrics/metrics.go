// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "suisen"

// Recommendation and index metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Total number of recommendation requests",
		},
		[]string{"status"}, // "ok" / "invalid" / "unavailable" / "error"
	)

	RecommendDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation latency in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		},
	)

	ReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_reloads_total",
			Help:      "Total number of index rebuilds",
		},
		[]string{"status"}, // "ok" / "error"
	)

	CatalogDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_documents",
			Help:      "Number of assessments in the serving index",
		},
	)

	TrainingQueries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_queries",
			Help:      "Number of distinct training queries in the serving index",
		},
	)
)

var registerOnce sync.Once

// Register registers all collectors with the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RecommendRequestsTotal)
		prometheus.MustRegister(RecommendDuration)
		prometheus.MustRegister(ReloadsTotal)
		prometheus.MustRegister(CatalogDocuments)
		prometheus.MustRegister(TrainingQueries)
		prometheus.MustRegister(httpRequestDuration)
		prometheus.MustRegister(httpRequestsTotal)
	})
}
