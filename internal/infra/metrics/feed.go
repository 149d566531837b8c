package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		leadUnlocksTotal,
		feedPagesTotal,
		creditsDegradedTotal,
	)
}

var (
	leadUnlocksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_unlocks_total",
			Help: "Lead contact unlocks by outcome (ok/no_credits/error).",
		},
		[]string{"outcome"},
	)

	feedPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_pages_total",
			Help: "Feed pages served.",
		},
	)

	creditsDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_degraded_total",
			Help: "Credit lookups that fell back to the degraded default.",
		},
	)
)

func IncLeadUnlock(outcome string) {
	leadUnlocksTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncFeedPage() {
	feedPagesTotal.Inc()
}

func IncCreditsDegraded() {
	creditsDegradedTotal.Inc()
}
