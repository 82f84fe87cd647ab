package checkout

import "github.com/prometheus/client_golang/prometheus"

var (
	ordersCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_orders_created_total",
		Help: "Donation orders created, by mode (live or demo).",
	}, []string{"mode"})

	ordersCaptured = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "paygate_orders_captured_total",
		Help: "Donation orders captured.",
	})

	providerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paygate_provider_errors_total",
		Help: "Failed calls to the payment provider, by operation.",
	}, []string{"op"})
)

func init() {
	prometheus.MustRegister(ordersCreated, ordersCaptured, providerErrors)
}
