package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dreschagin/page-health-analyzer/internal/application/threshold"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

func newThresholdHandler(t *testing.T) (*ThresholdAPIHandler, *threshold.Store) {
	t.Helper()
	log := logger.New("error")
	store := threshold.NewStore(nil, log)
	return NewThresholdAPIHandler(store, log), store
}

func TestThresholdsGet(t *testing.T) {
	h, _ := newThresholdHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/thresholds", nil)
	rec := httptest.NewRecorder()
	h.Thresholds(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Current  valueobject.ThresholdSet `json:"current"`
		Defaults valueobject.ThresholdSet `json:"defaults"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Current != valueobject.DefaultThresholds() {
		t.Errorf("expected defaults as current set, got %+v", body.Current)
	}
	if body.Defaults != valueobject.DefaultThresholds() {
		t.Errorf("expected built-in defaults, got %+v", body.Defaults)
	}
}

func TestThresholdsUpdate(t *testing.T) {
	h, store := newThresholdHandler(t)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/thresholds",
		strings.NewReader(`{"loadTime": 4000, "ttfb": 1500}`))
	rec := httptest.NewRecorder()
	h.Thresholds(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	current := store.Current()
	if current.LoadTime != 4000 {
		t.Errorf("expected loadTime 4000, got %v", current.LoadTime)
	}
	if current.TTFB != 1500 {
		t.Errorf("expected ttfb 1500, got %v", current.TTFB)
	}
	if current.PageSize != valueobject.DefaultThresholds().PageSize {
		t.Errorf("pageSize should stay at default, got %v", current.PageSize)
	}
}

func TestThresholdsUpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		key  string
	}{
		{"negative value", `{"loadTime": -1}`, "loadTime"},
		{"zero value", `{"ttfb": 0}`, "ttfb"},
		{"unknown key", `{"requestCount": 10}`, "requestCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newThresholdHandler(t)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/thresholds", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Thresholds(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}

			var body struct {
				Key string `json:"key"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body.Key != tt.key {
				t.Errorf("expected offending key %q, got %q", tt.key, body.Key)
			}

			if store.Current() != valueobject.DefaultThresholds() {
				t.Error("invalid update must not mutate the live set")
			}
		})
	}
}

func TestThresholdsUpdateAllOrNothing(t *testing.T) {
	h, store := newThresholdHandler(t)

	// Один невалидный ключ отменяет весь запрос
	req := httptest.NewRequest(http.MethodPut, "/api/v1/thresholds",
		strings.NewReader(`{"loadTime": 4000, "pageSize": -5}`))
	rec := httptest.NewRecorder()
	h.Thresholds(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if store.Current().LoadTime != valueobject.DefaultThresholds().LoadTime {
		t.Error("valid entry must not apply when another entry is invalid")
	}
}

func TestThresholdsReset(t *testing.T) {
	h, store := newThresholdHandler(t)

	if err := store.Set(context.Background(), "loadTime", 9000); err != nil {
		t.Fatalf("failed to set threshold: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/thresholds/reset", nil)
	rec := httptest.NewRecorder()
	h.Reset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.Current() != valueobject.DefaultThresholds() {
		t.Errorf("expected defaults after reset, got %+v", store.Current())
	}
}

func TestThresholdsMethodNotAllowed(t *testing.T) {
	h, _ := newThresholdHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/thresholds", nil)
	rec := httptest.NewRecorder()
	h.Thresholds(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
