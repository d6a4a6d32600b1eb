package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewid_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Signups counts account registrations by result (success|duplicate|error).
	Signups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewid_signups_total",
			Help: "Total number of signup attempts",
		},
		[]string{"result"},
	)

	// TokenRefreshes counts refresh-token rotations by result (success|failure).
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "brewid_token_refreshes_total",
			Help: "Total number of refresh token rotations",
		},
		[]string{"result"},
	)

	// PurgedAccounts counts unverified accounts removed by the cleanup job.
	PurgedAccounts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "brewid_purged_accounts_total",
			Help: "Number of stale unverified accounts deleted",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "brewid_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
