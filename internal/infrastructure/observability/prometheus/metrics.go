package prometheus

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
)

// Metrics bundles prometheus collectors used by the analyzer service.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal      *prometheus.CounterVec
	RequestDurationSec *prometheus.HistogramVec

	AnalysisCyclesTotal *prometheus.CounterVec
	AnalysisScore       *prometheus.GaugeVec
	AnalysisDurationSec prometheus.Histogram
	PipelineErrorsTotal prometheus.Counter
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_health_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		RequestDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "page_health_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		AnalysisCyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "page_health_analysis_cycles_total",
			Help: "Total number of finished analysis cycles by final status.",
		}, []string{"status"}),
		AnalysisScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "page_health_score",
			Help: "Composite health score of the last analysis cycle.",
		}, []string{"url"}),
		AnalysisDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "page_health_analysis_duration_seconds",
			Help:    "Analysis cycle duration in seconds.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		PipelineErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "page_health_pipeline_errors_total",
			Help: "Total number of recovered pipeline stage errors.",
		}),
	}

	registry.MustRegister(
		m.RequestsTotal,
		m.RequestDurationSec,
		m.AnalysisCyclesTotal,
		m.AnalysisScore,
		m.AnalysisDurationSec,
		m.PipelineErrorsTotal,
	)

	return m
}

// Handler exposes the /metrics scrape endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// PublishCycle records one finished analysis cycle.
// Implements port.CycleMetricsPublisher.
func (m *Metrics) PublishCycle(_ context.Context, stats port.CycleStats) error {
	m.AnalysisCyclesTotal.WithLabelValues(stats.Status).Inc()
	m.AnalysisScore.WithLabelValues(stats.URL).Set(float64(stats.Score))
	m.AnalysisDurationSec.Observe(stats.Duration.Seconds())
	m.PipelineErrorsTotal.Add(float64(stats.PipelineErrors))
	return nil
}

// Flush is a no-op: prometheus collectors are pull-based.
func (m *Metrics) Flush(_ context.Context) error {
	return nil
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := normalizeRoute(r.URL.Path)
		m.RequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.RequestDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

func normalizeRoute(path string) string {
	switch {
	case path == "/ws":
		return "/ws"
	case path == "/metrics":
		return "/metrics"
	case path == "/health":
		return "/health"
	case path == "/api/v1" || hasPrefix(path, "/api/v1/"):
		return "/api/v1/*"
	case path == "/api" || hasPrefix(path, "/api/"):
		return "/api/*"
	default:
		return "other"
	}
}

func hasPrefix(value, prefix string) bool {
	if len(value) < len(prefix) {
		return false
	}
	return value[:len(prefix)] == prefix
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for handlers that require it.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
