package entity

import (
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// Verdict представляет результат оценки одного сэмпла против его порога.
// Иммутабелен после создания.
type Verdict struct {
	Kind      valueobject.MetricKind `json:"kind"`
	Value     float64                `json:"value"`
	Threshold float64                `json:"threshold"`
	Status    valueobject.Status     `json:"status"`
	Message   string                 `json:"message"`
}

// HealthReport представляет итог одного цикла анализа. Создается один раз,
// презентационные слои только форматируют его, не пересчитывая
// статус или оценку.
type HealthReport struct {
	ID             string         `json:"id"`
	URL            string         `json:"url,omitempty"`
	Status         valueobject.Status `json:"status"`
	Score          int            `json:"score"`
	Verdicts       []Verdict      `json:"verdicts"`
	WorstOffenders []string       `json:"worst_offenders"`
	Samples        []MetricSample `json:"samples,omitempty"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Duration       time.Duration  `json:"duration_ms"`
	PipelineErrors int            `json:"pipeline_errors"`
}
