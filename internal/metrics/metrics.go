// Package metrics exposes Prometheus collectors for HTTP traffic and XP
// ledger activity.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "habitxp",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitxp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "habitxp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	xpAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitxp",
			Subsystem: "ledger",
			Name:      "xp_awarded_total",
			Help:      "XP credited to users, by source.",
		},
		[]string{"source"},
	)

	xpRevoked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitxp",
			Subsystem: "ledger",
			Name:      "xp_revoked_total",
			Help:      "XP debited from users, by source.",
		},
		[]string{"source"},
	)

	serviceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "habitxp",
			Subsystem: "service",
			Name:      "failures_total",
			Help:      "Failed service operations, by operation and error kind.",
		},
		[]string{"op", "kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		xpAwarded,
		xpRevoked,
		serviceFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
// Requests are labelled by their chi route pattern, so ids never reach the
// path label and requests no route matched share one series.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		path := routeLabel(r)
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	})
}

// RecordXPAwarded counts xp credited from source ("habit", "goal", "task").
func RecordXPAwarded(source string, xp int) {
	if xp <= 0 {
		return
	}
	xpAwarded.WithLabelValues(source).Add(float64(xp))
}

// RecordXPRevoked counts xp debited from source.
func RecordXPRevoked(source string, xp int) {
	if xp <= 0 {
		return
	}
	xpRevoked.WithLabelValues(source).Add(float64(xp))
}

// RecordFailure counts a failed operation by its error kind.
func RecordFailure(op, kind string) {
	serviceFailures.WithLabelValues(op, kind).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// unmatchedRoute labels requests that no route matched.
const unmatchedRoute = "unmatched"

// routeLabel reads the matched route pattern, e.g. /api/habits/{id}/stats.
// It must be called after the router has served r.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
