package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WaitlistSubmissions counts submissions by outcome (created|duplicate|error)
	// and source. Unknown sources are reported as "other".
	WaitlistSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovpen_waitlist_submissions_total",
			Help: "Total number of waitlist submissions by outcome",
		},
		[]string{"outcome", "source"},
	)

	// WaitlistEntries tracks the number of entries per status.
	WaitlistEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lovpen_waitlist_entries",
			Help: "Number of waitlist entries per status",
		},
		[]string{"status"},
	)

	// WaitlistPendingByTier tracks pending entries per queue tier.
	WaitlistPendingByTier = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lovpen_waitlist_pending_by_tier",
			Help: "Number of pending waitlist entries per tier",
		},
		[]string{"tier"},
	)

	// AdminLoginAttempts records admin login attempts by result (success|failure).
	AdminLoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovpen_admin_login_attempts_total",
			Help: "Total number of admin login attempts",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lovpen_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"path"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lovpen_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
