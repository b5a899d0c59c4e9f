package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ustore",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ustore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ustore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	productViews = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ustore",
			Subsystem: "catalog",
			Name:      "product_views_total",
			Help:      "Total number of product detail fetches.",
		},
	)

	stockAdjustments = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ustore",
			Subsystem: "catalog",
			Name:      "stock_adjustments_total",
			Help:      "Stock deductions by outcome.",
		},
		[]string{"result"},
	)

	authAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ustore",
			Subsystem: "auth",
			Name:      "signin_attempts_total",
			Help:      "Sign-in attempts by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		productViews,
		stockAdjustments,
		authAttempts,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RequestStarted marks a request in flight and returns the function recording
// its completion.
func RequestStarted() func(method, route string, status int) {
	start := time.Now()
	httpInFlight.Inc()
	return func(method, route string, status int) {
		httpInFlight.Dec()
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordProductView() {
	productViews.Inc()
}

func RecordStockAdjustment(result string) {
	stockAdjustments.WithLabelValues(result).Inc()
}

func RecordSignIn(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	authAttempts.WithLabelValues(result).Inc()
}
