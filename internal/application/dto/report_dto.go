package dto

import (
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
)

// VerdictDTO представляет один вердикт для клиентов
type VerdictDTO struct {
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Status    string  `json:"status"`
	Message   string  `json:"message"`
}

// HealthReportDTO представляет итоговый отчет для клиентов
// Клиенты только форматируют поля, никогда не пересчитывают статус/оценку
type HealthReportDTO struct {
	ID             string       `json:"id"`
	URL            string       `json:"url,omitempty"`
	Status         string       `json:"status"`
	Score          int          `json:"score"`
	Verdicts       []VerdictDTO `json:"verdicts"`
	WorstOffenders []string     `json:"worst_offenders"`
	GeneratedAt    time.Time    `json:"generated_at"`
	DurationMs     int64        `json:"duration_ms"`
	PipelineErrors int          `json:"pipeline_errors"`
}

// AlertDTO представляет уведомление о проблемном отчете
type AlertDTO struct {
	Level     string    `json:"level"` // "warning" или "critical"
	URL       string    `json:"url,omitempty"`
	Message   string    `json:"message"`
	Score     int       `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// ToHealthReportDTO конвертирует domain entity в DTO
func ToHealthReportDTO(report *entity.HealthReport) *HealthReportDTO {
	verdicts := make([]VerdictDTO, 0, len(report.Verdicts))
	for _, v := range report.Verdicts {
		verdicts = append(verdicts, VerdictDTO{
			Metric:    v.Kind.String(),
			Value:     v.Value,
			Threshold: v.Threshold,
			Status:    v.Status.String(),
			Message:   v.Message,
		})
	}

	return &HealthReportDTO{
		ID:             report.ID,
		URL:            report.URL,
		Status:         report.Status.String(),
		Score:          report.Score,
		Verdicts:       verdicts,
		WorstOffenders: append([]string(nil), report.WorstOffenders...),
		GeneratedAt:    report.GeneratedAt,
		DurationMs:     report.Duration.Milliseconds(),
		PipelineErrors: report.PipelineErrors,
	}
}

// NewAlertDTO создает alert из отчета
func NewAlertDTO(report *entity.HealthReport, level, message string) *AlertDTO {
	return &AlertDTO{
		Level:     level,
		URL:       report.URL,
		Message:   message,
		Score:     report.Score,
		Timestamp: time.Now(),
	}
}
