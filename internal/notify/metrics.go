package notify

import "github.com/prometheus/client_golang/prometheus"

var deliveriesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_deliveries_total",
		Help: "Notification deliveries by result (sent, failed).",
	},
	[]string{"result"},
)

var broadcastsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notify_broadcasts_total",
		Help: "Broadcasts by outcome (delivered, skipped).",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(deliveriesTotal, broadcastsTotal)
}
