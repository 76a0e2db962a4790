// Package telemetry defines the Prometheus metric vectors for the gateway
// and the HTTP middleware that feeds them.
package telemetry

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
			Name: "mdgate_http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mdgate_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method", "route"},
	)

	fetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdgate_fetches_total",
			Help: "Total number of conversion attempts, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	fetchDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdgate_fetch_duration_seconds",
			Help:    "Histogram of single conversion latencies.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mdgate_batch_size",
			Help:    "Histogram of batch request sizes.",
			Buckets: []float64{1, 2, 3, 5, 8, 10},
		},
	)

	rateLimitDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mdgate_rate_limit_denied_total",
			Help: "Total number of rate-limited requests, labeled by scope.",
		},
		[]string{"scope"},
	)
)

// ObserveFetch records one conversion attempt.
func ObserveFetch(ok bool, duration time.Duration) {
	outcome := "success"
	if !ok {
		outcome = "failure"
	}
	fetchesTotal.WithLabelValues(outcome).Inc()
	fetchDurationSeconds.Observe(duration.Seconds())
}

// ObserveBatch records the size of one batch request.
func ObserveBatch(size int) {
	batchSize.Observe(float64(size))
}

// ObserveRateLimitDenied records one denied request for a scope.
func ObserveRateLimitDenied(scope string) {
	rateLimitDeniedTotal.WithLabelValues(scope).Inc()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}

		httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.status)).Inc()
		httpRequestDurationSeconds.WithLabelValues(r.Method, routePattern).
			Observe(time.Since(start).Seconds())
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
