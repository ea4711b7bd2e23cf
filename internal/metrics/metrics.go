package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type CheckoutMetrics struct {
	Checkouts     *prometheus.CounterVec
	StockRejects  prometheus.Counter
	Compensations prometheus.Counter
	LatencyMS     prometheus.Histogram
}

func NewCheckoutMetrics(service string) *CheckoutMetrics {
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: service,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})
	rejects := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: service,
		Name:      "stock_rejects_total",
		Help:      "Reservations rejected for insufficient stock.",
	})
	comps := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: service,
		Name:      "compensations_total",
		Help:      "Stock compensations applied after a failed checkout.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shop",
		Subsystem: service,
		Name:      "checkout_duration_ms",
		Help:      "Checkout latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	prometheus.MustRegister(checkouts, rejects, comps, latency)
	return &CheckoutMetrics{
		Checkouts:     checkouts,
		StockRejects:  rejects,
		Compensations: comps,
		LatencyMS:     latency,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
