package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestCounter counts HTTP requests by status code, method, and route pattern
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"status", "method", "path"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codecollab_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status", "method", "path"},
	)

	RequestInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "codecollab_http_requests_in_progress",
			Help: "Number of HTTP requests currently being processed",
		},
		[]string{"method"},
	)

	// DatabaseOperationDuration measures database operation duration
	DatabaseOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "codecollab_db_operation_duration_seconds",
			Help:    "Database operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "outcome"},
	)

	// SubmissionsTotal counts graded submissions; outcome is "completed" or "failed"
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "codecollab_submissions_total",
			Help: "Total number of graded challenge submissions",
		},
		[]string{"outcome"},
	)

	PointsAwarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_points_awarded_total",
			Help: "Total number of points credited to users",
		},
	)

	ContentUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_session_content_updates_total",
			Help: "Total number of coding session content writes",
		},
	)

	// WebsocketClients tracks connected session stream clients
	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "codecollab_websocket_clients",
			Help: "Number of connected websocket clients",
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_cache_hits_total",
			Help: "Total number of leaderboard cache hits",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "codecollab_cache_misses_total",
			Help: "Total number of leaderboard cache misses",
		},
	)
)

// RecordDBOperation records the duration of a database operation
func RecordDBOperation(operation string, outcome string, startTime time.Time) {
	duration := time.Since(startTime).Seconds()
	DatabaseOperationDuration.WithLabelValues(operation, outcome).Observe(duration)
}

// RecordSubmission records a graded submission and the points it credited.
func RecordSubmission(completed bool, awarded int) {
	outcome := "failed"
	if completed {
		outcome = "completed"
	}
	SubmissionsTotal.WithLabelValues(outcome).Inc()
	if awarded > 0 {
		PointsAwarded.Add(float64(awarded))
	}
}
