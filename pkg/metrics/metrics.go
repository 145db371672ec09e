package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// RegistrationEvents counts registration flow transitions by stage
	// (begin|verify|resend|cancel) and result (success|failure).
	RegistrationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registration_events_total",
			Help: "Total number of registration flow events",
		},
		[]string{"stage", "result"},
	)

	// PasswordResets counts password reset flow events by stage
	// (request|confirm) and result.
	PasswordResets = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_password_resets_total",
			Help: "Total number of password reset flow events",
		},
		[]string{"stage", "result"},
	)

	// MailDeliveries counts outbound email deliveries by result (sent|failed).
	MailDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_mail_deliveries_total",
			Help: "Total number of outbound email deliveries",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "portal_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
