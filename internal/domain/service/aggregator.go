package service

import (
	"fmt"
	"math"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

const (
	// NoMetricsMessage используется для пустого списка вердиктов
	NoMetricsMessage = "No metrics available for analysis"
	// AllHealthyMessage используется, когда нет ни одного WARN/FAIL
	AllHealthyMessage = "All metrics within acceptable thresholds"
)

// HealthAggregator сводит список вердиктов в композитный отчет (Domain Service)
// Чистая функция без побочных эффектов
type HealthAggregator struct{}

// NewHealthAggregator создает новый HealthAggregator
func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{}
}

// Aggregate вычисляет композитную оценку (среднее PASS=100/WARN=60/FAIL=0,
// округление half-up), общий статус (худший из вердиктов) и список
// worst offenders: только FAIL-вердикты, если они есть; иначе WARN;
// иначе единственное позитивное сообщение.
func (a *HealthAggregator) Aggregate(verdicts []entity.Verdict) entity.HealthReport {
	generatedAt := time.Now()

	if len(verdicts) == 0 {
		return entity.HealthReport{
			Status:         valueobject.StatusFail,
			Score:          0,
			Verdicts:       []entity.Verdict{},
			WorstOffenders: []string{NoMetricsMessage},
			GeneratedAt:    generatedAt,
		}
	}

	var sum int
	status := valueobject.StatusPass
	var failures, warnings []string

	for _, v := range verdicts {
		sum += v.Status.Score()
		if v.Status.WorseThan(status) {
			status = v.Status
		}

		offender := fmt.Sprintf("%s: %s", v.Kind, v.Message)
		switch v.Status {
		case valueobject.StatusFail:
			failures = append(failures, offender)
		case valueobject.StatusWarn:
			warnings = append(warnings, offender)
		}
	}

	score := int(math.Floor(float64(sum)/float64(len(verdicts)) + 0.5))

	offenders := failures
	if len(offenders) == 0 {
		offenders = warnings
	}
	if len(offenders) == 0 {
		offenders = []string{AllHealthyMessage}
	}

	return entity.HealthReport{
		Status:         status,
		Score:          score,
		Verdicts:       verdicts,
		WorstOffenders: offenders,
		GeneratedAt:    generatedAt,
	}
}
