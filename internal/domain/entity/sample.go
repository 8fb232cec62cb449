package entity

import (
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// MetricSample представляет одно измеренное значение от коллектора.
// Иммутабелен после создания.
type MetricSample struct {
	Kind        valueobject.MetricKind `json:"kind"`
	Value       float64                `json:"value"`
	Available   bool                   `json:"available"`
	CollectedAt time.Time              `json:"collected_at"`
}

// NewMetricSample создает сэмпл с измеренным значением
func NewMetricSample(kind valueobject.MetricKind, value float64) MetricSample {
	return MetricSample{
		Kind:        kind,
		Value:       value,
		Available:   true,
		CollectedAt: time.Now(),
	}
}

// UnavailableSample создает нулевой сэмпл для семейства,
// которое не удалось измерить
func UnavailableSample(kind valueobject.MetricKind) MetricSample {
	return MetricSample{
		Kind:        kind,
		Value:       0,
		Available:   false,
		CollectedAt: time.Now(),
	}
}
