package prometheus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
)

func gatherValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		var total float64
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() != nil {
				total += metric.GetCounter().GetValue()
			}
			if metric.GetGauge() != nil {
				total += metric.GetGauge().GetValue()
			}
		}
		return total
	}

	t.Fatalf("metric %s not found", name)
	return 0
}

func TestPublishCycle(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	stats := port.CycleStats{
		URL:            "https://example.com",
		Status:         "WARN",
		Score:          90,
		Duration:       2 * time.Second,
		PipelineErrors: 1,
	}

	if err := m.PublishCycle(context.Background(), stats); err != nil {
		t.Fatalf("PublishCycle() error = %v", err)
	}
	if err := m.PublishCycle(context.Background(), stats); err != nil {
		t.Fatalf("PublishCycle() error = %v", err)
	}

	if got := gatherValue(t, registry, "page_health_analysis_cycles_total"); got != 2 {
		t.Errorf("expected 2 cycles, got %v", got)
	}
	if got := gatherValue(t, registry, "page_health_score"); got != 90 {
		t.Errorf("expected score gauge 90, got %v", got)
	}
	if got := gatherValue(t, registry, "page_health_pipeline_errors_total"); got != 2 {
		t.Errorf("expected 2 pipeline errors, got %v", got)
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analyze", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected status passthrough, got %d", rec.Code)
	}
	if got := gatherValue(t, registry, "page_health_requests_total"); got != 1 {
		t.Errorf("expected 1 request counted, got %v", got)
	}
}

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/ws", "/ws"},
		{"/metrics", "/metrics"},
		{"/health", "/health"},
		{"/api/v1/analyze", "/api/v1/*"},
		{"/api/legacy", "/api/*"},
		{"/favicon.ico", "other"},
	}

	for _, tt := range tests {
		if got := normalizeRoute(tt.path); got != tt.want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
