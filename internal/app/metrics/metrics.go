package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "payment_gateway",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment_gateway",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment_gateway",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	conversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment_gateway",
			Subsystem: "conversion",
			Name:      "conversions_total",
			Help:      "Total number of conversion computations.",
		},
		[]string{"status"},
	)

	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment_gateway",
			Subsystem: "conversion",
			Name:      "duration_seconds",
			Help:      "Duration of conversion computations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"status"},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment_gateway",
			Subsystem: "settlement",
			Name:      "executions_total",
			Help:      "Total number of settlement executions.",
		},
		[]string{"method", "status"},
	)

	settlementDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment_gateway",
			Subsystem: "settlement",
			Name:      "execution_duration_seconds",
			Help:      "Duration of settlement executions.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"method"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		conversions,
		conversionDuration,
		settlements,
		settlementDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
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

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordConversion records metrics for conversion computations.
func RecordConversion(status string, duration time.Duration) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	conversions.WithLabelValues(status).Inc()
	conversionDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordSettlement records metrics for settlement executions.
func RecordSettlement(method, status string, duration time.Duration) {
	if method == "" {
		method = "unknown"
	}
	if duration <= 0 {
		duration = time.Millisecond
	}
	settlements.WithLabelValues(method, status).Inc()
	settlementDuration.WithLabelValues(method).Observe(duration.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource identifiers so the path label stays low
// cardinality.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "prices":
		if len(parts) > 1 {
			return "/prices/:asset"
		}
		return "/prices"
	case "settlements":
		if len(parts) > 1 && parts[1] != "execute" {
			return "/settlements/:id"
		}
		if len(parts) > 1 {
			return "/settlements/execute"
		}
		return "/settlements"
	case "merchants":
		if len(parts) > 1 {
			return "/merchants/:id"
		}
		return "/merchants"
	default:
		return "/" + parts[0]
	}
}
