package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ledgerDebitedTokens,
		ledgerCreditedTokens,
		ledgerInsufficientTotal,
	)
}

var (
	ledgerDebitedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_debited_tokens_total",
			Help: "Tokens removed from balances by successful debits.",
		},
	)

	ledgerCreditedTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_credited_tokens_total",
			Help: "Tokens added to balances by credits.",
		},
	)

	ledgerInsufficientTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_insufficient_total",
			Help: "Debits rejected for insufficient tokens.",
		},
	)
)

func AddDebited(amount int64) {
	ledgerDebitedTokens.Add(float64(amount))
}

func AddCredited(amount int64) {
	ledgerCreditedTokens.Add(float64(amount))
}

func IncInsufficient() {
	ledgerInsufficientTotal.Inc()
}
