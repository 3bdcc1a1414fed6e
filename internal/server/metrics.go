package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// requestDuration measures web action latency.
	// Labels: route (mux pattern), code (HTTP status)
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "qube",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Web action latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "code"})

	// visibilityChanges counts effective project visibility transitions.
	// Labels: visibility (the new value)
	visibilityChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "qube",
		Subsystem: "projects",
		Name:      "visibility_changes_total",
		Help:      "Project visibility transitions",
	}, []string{"visibility"})

	indexFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qube",
		Subsystem: "projects",
		Name:      "index_failures_total",
		Help:      "Permission re-index calls that failed after commit",
	})

	suggestionQueries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "qube",
		Subsystem: "components",
		Name:      "suggestion_queries_total",
		Help:      "Component suggestion queries served",
	})
)

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records the latency of every request by route pattern.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		requestDuration.WithLabelValues(route, strconv.Itoa(rec.code)).Observe(time.Since(start).Seconds())
	})
}
