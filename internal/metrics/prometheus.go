// Package metrics provides Prometheus metrics for the presence service.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	eventsTotal      *prometheus.CounterVec
	authFailures     *prometheus.CounterVec
	rendersTotal     *prometheus.CounterVec
	sessionLive      *prometheus.GaugeVec
}

var globalMetrics *Metrics

// New creates and registers Prometheus metrics. Registration is process-wide,
// so repeated calls return the same instance.
func New() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		requestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerpop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "playerpop_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path", "status"},
		),
		requestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "playerpop_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		eventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerpop_events_total",
				Help: "Total number of applied game server events",
			},
			[]string{"tenant", "type"},
		),
		authFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerpop_auth_failures_total",
				Help: "Total number of rejected event signatures",
			},
			[]string{"tenant"},
		),
		rendersTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "playerpop_presence_renders_total",
				Help: "Total number of presence renders by outcome",
			},
			[]string{"tenant", "status"},
		),
		sessionLive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "playerpop_presence_session_live",
				Help: "Whether the presence session is connected (1) or not (0)",
			},
			[]string{"tenant"},
		),
	}

	return globalMetrics
}

// RecordHTTPRequest records metrics for an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.requestsTotal.WithLabelValues(method, path, status).Inc()
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordEvent records an applied event.
func (m *Metrics) RecordEvent(tenantID, eventType string) {
	m.eventsTotal.WithLabelValues(tenantID, eventType).Inc()
}

// RecordAuthFailure records a rejected signature.
func (m *Metrics) RecordAuthFailure(tenantID string) {
	m.authFailures.WithLabelValues(tenantID).Inc()
}

// RecordRender records a presence render attempt.
func (m *Metrics) RecordRender(tenantID string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.rendersTotal.WithLabelValues(tenantID, status).Inc()
}

// SetSessionLive records whether a tenant's presence session is connected.
func (m *Metrics) SetSessionLive(tenantID string, live bool) {
	v := 0.0
	if live {
		v = 1.0
	}
	m.sessionLive.WithLabelValues(tenantID).Set(v)
}

// IncRequestsInFlight increments the in-flight requests counter.
func (m *Metrics) IncRequestsInFlight() {
	m.requestsInFlight.Inc()
}

// DecRequestsInFlight decrements the in-flight requests counter.
func (m *Metrics) DecRequestsInFlight() {
	m.requestsInFlight.Dec()
}

// MetricsServer provides a separate HTTP server for Prometheus metrics.
type MetricsServer struct {
	server *http.Server
	logger *zap.Logger
}

// NewMetricsServer creates a new metrics server.
func NewMetricsServer(port int, path string, logger *zap.Logger) *MetricsServer {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	return &MetricsServer{
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
		logger: logger,
	}
}

// Start starts the metrics server.
func (ms *MetricsServer) Start() error {
	ms.logger.Info("starting metrics server", zap.String("addr", ms.server.Addr))
	if err := ms.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the metrics server.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}

// Middleware creates middleware that records HTTP metrics.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.IncRequestsInFlight()
			defer m.DecRequestsInFlight()

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			m.RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
