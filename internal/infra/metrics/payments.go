package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		tokensCreditedTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status (pending/completed/failed/cancelled).",
		},
		[]string{"status", "provider"},
	)

	tokensCreditedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tokens_credited_total",
			Help: "Tokens credited from completed purchases, by provider.",
		},
		[]string{"provider"},
	)
)

func IncPayment(status, provider string) {
	paymentsTotal.WithLabelValues(norm(status), norm(provider)).Inc()
}

func AddTokensCredited(provider string, tokens int64) {
	tokensCreditedTotal.WithLabelValues(norm(provider)).Add(float64(tokens))
}
