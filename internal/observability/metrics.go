package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce            sync.Once
	dashboardRequestsTotal  *prometheus.CounterVec
	dashboardLatencySeconds *prometheus.HistogramVec
	dashboardErrorsTotal    *prometheus.CounterVec
	syncOperationsTotal     *prometheus.CounterVec
	syncDurationSeconds     *prometheus.HistogramVec
	snapshotFallbacksTotal  *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the dashboard and the sync layer.
func RegisterMetrics() {
	registerOnce.Do(func() {
		dashboardRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_requests_total",
			Help: "Total number of dashboard API requests served.",
		}, []string{"method", "route", "status"})

		dashboardLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashboard_latency_seconds",
			Help:    "Latency distribution for dashboard API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		dashboardErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_errors_total",
			Help: "Total number of error responses returned by dashboard endpoints.",
		}, []string{"method", "route", "status"})

		syncOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_operations_total",
			Help: "Total number of sync operations by outcome.",
		}, []string{"operation", "outcome"})

		syncDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sync_operation_duration_seconds",
			Help:    "Duration of sync operations including the follow-up refresh.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"})

		snapshotFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "snapshot_fallbacks_total",
			Help: "Number of snapshot loads that fell back to the baseline state.",
		}, []string{"reason"})

		prometheus.MustRegister(
			dashboardRequestsTotal,
			dashboardLatencySeconds,
			dashboardErrorsTotal,
			syncOperationsTotal,
			syncDurationSeconds,
			snapshotFallbacksTotal,
		)
	})
}

// DashboardRequests exposes the counter for dashboard requests.
func DashboardRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardRequestsTotal
}

// DashboardLatency exposes the latency histogram for dashboard requests.
func DashboardLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return dashboardLatencySeconds
}

// DashboardErrors exposes the counter for dashboard error responses.
func DashboardErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return dashboardErrorsTotal
}

// SyncOperations counts façade operations labelled by outcome (success, warning, error).
func SyncOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return syncOperationsTotal
}

// SyncDuration observes how long façade operations take.
func SyncDuration() *prometheus.HistogramVec {
	RegisterMetrics()
	return syncDurationSeconds
}

// SnapshotFallbacks counts loads that returned the baseline state.
func SnapshotFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return snapshotFallbacksTotal
}
