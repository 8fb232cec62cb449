package service

import (
	"strings"
	"testing"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

func TestEvaluateBoundaries(t *testing.T) {
	evaluator := NewMetricEvaluator()

	tests := []struct {
		name      string
		kind      valueobject.MetricKind
		value     float64
		threshold float64
		want      valueobject.Status
	}{
		{"well below threshold", valueobject.LoadTime, 1200, 5000, valueobject.StatusPass},
		{"exactly at threshold", valueobject.LoadTime, 5000, 5000, valueobject.StatusPass},
		{"just over threshold", valueobject.LoadTime, 5001, 5000, valueobject.StatusWarn},
		{"exactly at 1.5x threshold", valueobject.LoadTime, 7500, 5000, valueobject.StatusWarn},
		{"just over 1.5x threshold", valueobject.LoadTime, 7501, 5000, valueobject.StatusFail},
		{"far over threshold", valueobject.LoadTime, 20000, 5000, valueobject.StatusFail},
		{"page size at threshold", valueobject.PageSize, 2097152, 2097152, valueobject.StatusPass},
		{"page size at 1.5x", valueobject.PageSize, 3145728, 2097152, valueobject.StatusWarn},
		{"ttfb over 1.5x", valueobject.TTFB, 4501, 3000, valueobject.StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := entity.NewMetricSample(tt.kind, tt.value)
			verdict := evaluator.Evaluate(tt.kind, sample, tt.threshold)

			if verdict.Status != tt.want {
				t.Errorf("Evaluate(%v vs %v) = %v, want %v", tt.value, tt.threshold, verdict.Status, tt.want)
			}
			if verdict.Value != tt.value {
				t.Errorf("expected verdict value %v, got %v", tt.value, verdict.Value)
			}
			if verdict.Threshold != tt.threshold {
				t.Errorf("expected verdict threshold %v, got %v", tt.threshold, verdict.Threshold)
			}
		})
	}
}

func TestEvaluateUnavailableSample(t *testing.T) {
	evaluator := NewMetricEvaluator()

	verdict := evaluator.Evaluate(valueobject.TTFB, entity.UnavailableSample(valueobject.TTFB), 3000)

	if verdict.Status != valueobject.StatusFail {
		t.Errorf("expected FAIL for unavailable sample, got %v", verdict.Status)
	}
	if verdict.Value != 0 {
		t.Errorf("expected value 0 for unavailable sample, got %v", verdict.Value)
	}
	if !strings.Contains(verdict.Message, "unavailable") {
		t.Errorf("expected message to mention unavailability, got %q", verdict.Message)
	}
}

func TestEvaluateMessageUnits(t *testing.T) {
	evaluator := NewMetricEvaluator()

	tests := []struct {
		name      string
		kind      valueobject.MetricKind
		value     float64
		threshold float64
		contains  []string
	}{
		{
			name:      "seconds crossover at 1000ms",
			kind:      valueobject.LoadTime,
			value:     6000,
			threshold: 5000,
			contains:  []string{"6.00s", "5.00s"},
		},
		{
			name:      "milliseconds below crossover",
			kind:      valueobject.TTFB,
			value:     250,
			threshold: 3000,
			contains:  []string{"250ms", "3.00s"},
		},
		{
			name:      "megabytes crossover at 1024KB",
			kind:      valueobject.PageSize,
			value:     3 * 1024 * 1024,
			threshold: 2 * 1024 * 1024,
			contains:  []string{"3.00MB", "2.00MB"},
		},
		{
			name:      "kilobytes below crossover",
			kind:      valueobject.PageSize,
			value:     512 * 1024,
			threshold: 2 * 1024 * 1024,
			contains:  []string{"512.0KB", "2.00MB"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := entity.NewMetricSample(tt.kind, tt.value)
			verdict := evaluator.Evaluate(tt.kind, sample, tt.threshold)

			for _, fragment := range tt.contains {
				if !strings.Contains(verdict.Message, fragment) {
					t.Errorf("expected message %q to contain %q", verdict.Message, fragment)
				}
			}
		})
	}
}

func TestEvaluateLoadTimeScenario(t *testing.T) {
	evaluator := NewMetricEvaluator()

	sample := entity.NewMetricSample(valueobject.LoadTime, 6000)
	verdict := evaluator.Evaluate(valueobject.LoadTime, sample, 5000)

	if verdict.Status != valueobject.StatusWarn {
		t.Fatalf("6000ms vs 5000ms threshold: expected WARN, got %v", verdict.Status)
	}
	if !strings.Contains(verdict.Message, "6.00s") || !strings.Contains(verdict.Message, "5.00s") {
		t.Fatalf("expected message with actual and threshold figures, got %q", verdict.Message)
	}
}
