package valueobject

import "errors"

// MetricKind представляет семейство метрик страницы (Value Object)
type MetricKind string

const (
	PageSize     MetricKind = "pageSize"
	LoadTime     MetricKind = "loadTime"
	TTFB         MetricKind = "ttfb"
	RequestCount MetricKind = "requestCount"
)

// Validate проверяет валидность семейства метрик
func (mk MetricKind) Validate() error {
	switch mk {
	case PageSize, LoadTime, TTFB, RequestCount:
		return nil
	default:
		return errors.New("invalid metric kind")
	}
}

// String возвращает строковое представление
func (mk MetricKind) String() string {
	return string(mk)
}

// Label возвращает человекочитаемое имя семейства для сообщений отчета
func (mk MetricKind) Label() string {
	switch mk {
	case PageSize:
		return "Page size"
	case LoadTime:
		return "Load time"
	case TTFB:
		return "Time to first byte"
	case RequestCount:
		return "Request count"
	default:
		return string(mk)
	}
}

// AllMetricKinds возвращает все собираемые семейства в каноническом порядке
func AllMetricKinds() []MetricKind {
	return []MetricKind{PageSize, LoadTime, TTFB, RequestCount}
}

// ThresholdedKinds возвращает семейства, у которых есть настраиваемый порог,
// в каноническом порядке оценки (page size, load time, TTFB)
func ThresholdedKinds() []MetricKind {
	return []MetricKind{PageSize, LoadTime, TTFB}
}
