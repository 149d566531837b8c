package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		upsellFiredTotal,
		presentersOpen,
		discountPercent,
		discountCountdownSeconds,
		paymentsDeclinedTotal,
		pixKeyCopiesTotal,
	)
}

var (
	upsellFiredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upsell_fired_total",
			Help: "Upsell banners fired per feature and plan tier.",
		},
		[]string{"feature", "plan"},
	)

	presentersOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upsell_presenters_open",
			Help: "Currently mounted upsell banners.",
		},
	)

	discountPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "discount_percent",
			Help: "Current launch discount percentage.",
		},
	)

	discountCountdownSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "discount_countdown_seconds",
			Help: "Seconds left in the current discount window.",
		},
	)

	paymentsDeclinedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_declined_total",
			Help: "Card submissions declined, by plan tier.",
		},
		[]string{"plan"},
	)

	pixKeyCopiesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pix_key_copies_total",
			Help: "Times the PIX key was copied from the payment view.",
		},
	)
)

func IncUpsellFired(feature, plan string) {
	upsellFiredTotal.WithLabelValues(norm(feature), norm(plan)).Inc()
}

func SetPresentersOpen(n int) {
	presentersOpen.Set(float64(n))
}

func SetDiscountState(percent, secondsLeft int) {
	discountPercent.Set(float64(percent))
	discountCountdownSeconds.Set(float64(secondsLeft))
}

func IncPaymentDeclined(plan string) {
	paymentsDeclinedTotal.WithLabelValues(norm(plan)).Inc()
}

func IncPixKeyCopied() {
	pixKeyCopiesTotal.Inc()
}
