// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// ProviderRequestsTotal counts outbound provider calls by result.
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantid",
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Total number of identification provider calls, labeled by provider and result.",
	}, []string{"provider", "result"})

	// ProviderRequestDurationSeconds is the wall time of one provider call including retries.
	ProviderRequestDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "plantid",
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Time spent calling an identification provider, including retries.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"provider"})

	// ProviderRetriesTotal counts retry attempts after a retryable failure.
	ProviderRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantid",
		Subsystem: "provider",
		Name:      "retries_total",
		Help:      "Total number of provider call retries.",
	}, []string{"provider"})

	// IdentificationsTotal counts /identify outcomes by error kind ("success" on 200).
	IdentificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantid",
		Name:      "identifications_total",
		Help:      "Total number of identification requests, labeled by result.",
	}, []string{"result"})

	// TempFileCleanupFailuresTotal counts temporary uploads that could not be deleted.
	TempFileCleanupFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "plantid",
		Subsystem: "tempfile",
		Name:      "cleanup_failures_total",
		Help:      "Total number of temporary upload files that could not be deleted.",
	})

	// CacheLookupsTotal counts result cache lookups by outcome (hit, miss, error).
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "plantid",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Total number of identification result cache lookups, labeled by outcome.",
	}, []string{"outcome"})
)

// Register registers all collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDurationSeconds,
			ProviderRetriesTotal,
			IdentificationsTotal,
			TempFileCleanupFailuresTotal,
			CacheLookupsTotal,
		)
	})
}
