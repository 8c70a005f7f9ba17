package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(unlocksTotal)
}

var unlocksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "unlocks_total",
		Help: "Unlock attempts by outcome (created/repeat/insufficient).",
	},
	[]string{"outcome"},
)

func IncUnlock(outcome string) {
	unlocksTotal.WithLabelValues(norm(outcome)).Inc()
}
