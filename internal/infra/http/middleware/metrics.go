package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	lifecycleTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_lifecycle_transitions_total",
			Help: "Lifecycle operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	orphanedClaims = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_orphaned_claims",
			Help: "Owned leads without a live customer or depositor at the last sweep",
		},
	)

	mismatchedCustomers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "lead_mismatched_customers",
			Help: "Live customers whose lead is held by another agent at the last sweep",
		},
	)

	reconciliationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_reconciliation_runs_total",
			Help: "Reconciliation sweeps by result",
		},
		[]string{"result"},
	)

	eventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "lead_event_publish_errors_total",
			Help: "Lifecycle events that could not be published",
		},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Metrics records request count and latency labelled by chi route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				path = p
			}
		}
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

func RecordTransition(operation, outcome string) {
	lifecycleTransitions.WithLabelValues(operation, outcome).Inc()
}

func RecordReconciliation(result string, orphans, mismatched int) {
	reconciliationRuns.WithLabelValues(result).Inc()
	if result == "ok" {
		orphanedClaims.Set(float64(orphans))
		mismatchedCustomers.Set(float64(mismatched))
	}
}

func RecordPublishError() {
	eventPublishErrors.Inc()
}
