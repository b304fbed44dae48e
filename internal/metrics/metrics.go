// Package metrics provides Prometheus metrics for clipshare.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipshare",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration tracks HTTP request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "clipshare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks the number of in-flight HTTP requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipshare",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	// EntriesTotal tracks the number of stored entries.
	EntriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipshare",
			Name:      "entries_total",
			Help:      "Number of clipboard entries currently stored",
		},
	)

	// SecretsTotal tracks the number of stored secret digests.
	SecretsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "clipshare",
			Name:      "secrets_total",
			Help:      "Number of secret digests currently stored",
		},
	)

	// SweptEntriesTotal counts entries removed by expiry sweeps.
	SweptEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipshare",
			Name:      "swept_entries_total",
			Help:      "Total number of entries removed by expiry sweeps",
		},
		[]string{"pass"}, // "strict" or "grace"
	)

	// SecretVerifications counts secret verification attempts by result.
	SecretVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipshare",
			Name:      "secret_verifications_total",
			Help:      "Total number of secret verification attempts",
		},
		[]string{"result"}, // "valid" or "invalid"
	)

	// StoreWrites counts document writes by collection and outcome.
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipshare",
			Name:      "store_writes_total",
			Help:      "Total number of document writes",
		},
		[]string{"collection", "outcome"}, // "ok", "failed", "verify_mismatch"
	)

	// StoreRepairs counts corrupt documents replaced with an empty collection.
	StoreRepairs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clipshare",
			Name:      "store_repairs_total",
			Help:      "Total number of corrupt documents reset to empty",
		},
		[]string{"collection"},
	)
)
