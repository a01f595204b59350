package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics
	PriceTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_price_ticks_total",
			Help: "Total number of price ticks processed",
		},
		[]string{"source", "status"}, // status: ok, rejected
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_alerts_fired_total",
			Help: "Total number of alerts that transitioned to triggered",
		},
		[]string{"condition"},
	)

	AlertTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_alert_transitions_total",
			Help: "Total number of user driven alert lifecycle operations",
		},
		[]string{"operation", "status"}, // status: ok, failed
	)

	// Feed metrics
	FeedPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coinalert_feed_poll_duration_seconds",
			Help:    "Time taken to fetch and process one market poll",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	FeedErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_feed_errors_total",
			Help: "Total number of price feed errors",
		},
		[]string{"source"},
	)

	// Delivery metrics
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_notifications_total",
			Help: "Total number of notification deliveries attempted",
		},
		[]string{"channel", "status"}, // status: delivered, failed, dropped
	)

	DeliveryQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coinalert_delivery_queue_size",
			Help: "Current number of intents waiting for delivery",
		},
	)

	PushClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coinalert_push_clients",
			Help: "Connected websocket push clients",
		},
	)

	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coinalert_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coinalert_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)
)
