// Package observability collects Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the Prometheus registry and application metrics.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	movementsPosted *prometheus.CounterVec
	docsValidated   *prometheus.CounterVec
	reconcileDrift  prometheus.Gauge
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklane_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stocklane_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklane_stock_movements_posted_total",
		Help: "Ledger movements posted by kind.",
	}, []string{"kind"})
	validated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stocklane_documents_validated_total",
		Help: "Documents validated by kind.",
	}, []string{"kind"})
	drift := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "stocklane_reconciliation_mismatched_pairs",
		Help: "Product/warehouse pairs whose ledger sum disagrees with the stored level.",
	})
	registry.MustRegister(requests, duration, movements, validated, drift)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movementsPosted: movements,
		docsValidated:   validated,
		reconcileDrift:  drift,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// MovementPosted increments the ledger movement counter for kind.
func (m *Metrics) MovementPosted(kind string) {
	if m == nil {
		return
	}
	m.movementsPosted.WithLabelValues(kind).Inc()
}

// DocumentValidated increments the validated-documents counter for kind.
func (m *Metrics) DocumentValidated(kind string) {
	if m == nil {
		return
	}
	m.docsValidated.WithLabelValues(kind).Inc()
}

// SetReconciliationDrift records the number of mismatched pairs found by the
// last reconciliation run.
func (m *Metrics) SetReconciliationDrift(pairs int) {
	if m == nil {
		return
	}
	m.reconcileDrift.Set(float64(pairs))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
