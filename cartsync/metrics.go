package cartsync

import "github.com/prometheus/client_golang/prometheus"

var (
	actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_actions_total",
			Help: "Total cart actions dispatched, by action and outcome",
		},
		[]string{"action", "status"},
	)

	actionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_cart_action_duration_seconds",
			Help:    "Duration of cart actions including the backend round trip",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(actionsTotal, actionDuration)
}
