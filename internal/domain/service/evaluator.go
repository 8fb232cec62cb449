package service

import (
	"fmt"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// Коэффициент запаса: значение до threshold*1.5 включительно дает WARN, выше FAIL
const warnBand = 1.5

// MetricEvaluator классифицирует измеренное значение против порога (Domain Service)
// Чистая функция без побочных эффектов
type MetricEvaluator struct{}

// NewMetricEvaluator создает новый MetricEvaluator
func NewMetricEvaluator() *MetricEvaluator {
	return &MetricEvaluator{}
}

// Evaluate сравнивает сэмпл с порогом и возвращает трехуровневый вердикт.
// Граница value == threshold классифицируется как PASS, value == threshold*1.5 как WARN.
func (e *MetricEvaluator) Evaluate(kind valueobject.MetricKind, sample entity.MetricSample, threshold float64) entity.Verdict {
	if !sample.Available {
		return entity.Verdict{
			Kind:      kind,
			Value:     0,
			Threshold: threshold,
			Status:    valueobject.StatusFail,
			Message:   fmt.Sprintf("%s data unavailable", kind.Label()),
		}
	}

	value := sample.Value

	var status valueobject.Status
	switch {
	case value <= threshold:
		status = valueobject.StatusPass
	case value <= threshold*warnBand:
		status = valueobject.StatusWarn
	default:
		status = valueobject.StatusFail
	}

	return entity.Verdict{
		Kind:      kind,
		Value:     value,
		Threshold: threshold,
		Status:    status,
		Message:   e.message(kind, status, value, threshold),
	}
}

func (e *MetricEvaluator) message(kind valueobject.MetricKind, status valueobject.Status, value, threshold float64) string {
	verb := "within threshold"
	if status != valueobject.StatusPass {
		verb = "exceeds threshold"
	}

	return fmt.Sprintf("%s %s %s %s",
		kind.Label(),
		formatMetricValue(kind, value),
		verb,
		formatMetricValue(kind, threshold),
	)
}

// formatMetricValue рендерит значение в естественных единицах семейства:
// время в ms/s с переходом на 1000ms, размер в KB/MB с переходом на 1024
func formatMetricValue(kind valueobject.MetricKind, value float64) string {
	switch kind {
	case valueobject.LoadTime, valueobject.TTFB:
		return formatMillis(value)
	case valueobject.PageSize:
		return formatBytes(value)
	default:
		return fmt.Sprintf("%.0f", value)
	}
}

func formatMillis(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}

func formatBytes(bytes float64) string {
	kb := bytes / 1024
	if kb >= 1024 {
		return fmt.Sprintf("%.2fMB", kb/1024)
	}
	return fmt.Sprintf("%.1fKB", kb)
}
