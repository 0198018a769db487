package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsInitializedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_initialized_total",
		Help: "Total number of payment initializations sent to the gateway",
	}, []string{"kind"})

	PaymentsConfirmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_confirmed_total",
		Help: "Total number of charge.success webhook events processed",
	})

	WebhookRejectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "webhook_rejected_total",
		Help: "Total number of webhook deliveries rejected for a bad signature",
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"action"})

	NotificationsPushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notifications_pushed_total",
		Help: "Total number of notifications pushed over the realtime feed",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)
