package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		generationsTotal,
		generationRefunds,
		generationLatency,
	)
}

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Generation attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	generationRefunds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_refunds_total",
			Help: "Debits refunded after producer failures, by kind.",
		},
		[]string{"kind"},
	)

	generationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_latency_seconds",
			Help:    "Producer call latency distribution in seconds.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"kind", "provider"},
	)
)

func IncGeneration(kind, outcome string) {
	generationsTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

func IncGenerationRefund(kind string) {
	generationRefunds.WithLabelValues(norm(kind)).Inc()
}

func ObserveGenerationLatency(kind, provider string, seconds float64) {
	generationLatency.WithLabelValues(norm(kind), norm(provider)).Observe(seconds)
}
