package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplaza_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks live sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "eventplaza_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// TaskTransitions counts task workflow transitions by target status.
	TaskTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplaza_task_transitions_total",
			Help: "Total number of task status transitions",
		},
		[]string{"to"},
	)

	// EmailsSent counts outbound notification emails by flow (verify|reset).
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventplaza_emails_sent_total",
			Help: "Total number of notification emails dispatched",
		},
		[]string{"flow"},
	)

	// HTTPLatency measures request latencies per route.
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventplaza_http_latency_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
