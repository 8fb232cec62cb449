package valueobject

import (
	"fmt"
	"math"
)

// Built-in defaults: 2 MiB page size, 5000ms load time, 3000ms TTFB.
const (
	DefaultPageSizeBytes = 2 * 1024 * 1024
	DefaultLoadTimeMs    = 5000
	DefaultTTFBMs        = 3000
)

// ThresholdSet представляет фиксированный именованный набор порогов (Value Object).
// Передается и возвращается по значению, поэтому внешние изменения
// копии никогда не затрагивают живое состояние хранилища.
type ThresholdSet struct {
	PageSize float64 `json:"pageSize"` // bytes
	LoadTime float64 `json:"loadTime"` // milliseconds
	TTFB     float64 `json:"ttfb"`     // milliseconds
}

// DefaultThresholds возвращает встроенные значения по умолчанию
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		PageSize: DefaultPageSizeBytes,
		LoadTime: DefaultLoadTimeMs,
		TTFB:     DefaultTTFBMs,
	}
}

// ValidThresholdValue проверяет одно значение порога:
// число, не NaN, конечное и строго больше нуля
func ValidThresholdValue(value float64) bool {
	return !math.IsNaN(value) && !math.IsInf(value, 0) && value > 0
}

// Validate проверяет структурную валидность всего набора
func (ts ThresholdSet) Validate() error {
	for _, key := range ThresholdedKinds() {
		value, _ := ts.Value(key)
		if !ValidThresholdValue(value) {
			return fmt.Errorf("invalid threshold %q: %v", key, value)
		}
	}
	return nil
}

// Value возвращает порог для семейства метрик
func (ts ThresholdSet) Value(kind MetricKind) (float64, bool) {
	switch kind {
	case PageSize:
		return ts.PageSize, true
	case LoadTime:
		return ts.LoadTime, true
	case TTFB:
		return ts.TTFB, true
	default:
		return 0, false
	}
}

// WithValue возвращает копию набора с обновленным порогом
func (ts ThresholdSet) WithValue(kind MetricKind, value float64) ThresholdSet {
	switch kind {
	case PageSize:
		ts.PageSize = value
	case LoadTime:
		ts.LoadTime = value
	case TTFB:
		ts.TTFB = value
	}
	return ts
}
