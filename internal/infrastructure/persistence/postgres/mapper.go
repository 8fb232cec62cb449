package postgres

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// ReportDBModel представляет отчет в БД
type ReportDBModel struct {
	ID             string
	URL            string
	Status         string
	Score          int
	Verdicts       []byte // JSON
	WorstOffenders []byte // JSON
	Samples        []byte // JSON
	PipelineErrors int
	GeneratedAt    time.Time
	DurationMs     int64
	CreatedAt      time.Time
}

// ToDBModel конвертирует Domain Entity в DB Model
func ToDBModel(report *entity.HealthReport) (*ReportDBModel, error) {
	verdicts, err := json.Marshal(report.Verdicts)
	if err != nil {
		return nil, err
	}

	offenders, err := json.Marshal(report.WorstOffenders)
	if err != nil {
		return nil, err
	}

	var samples []byte
	if len(report.Samples) > 0 {
		samples, err = json.Marshal(report.Samples)
		if err != nil {
			return nil, err
		}
	}

	return &ReportDBModel{
		ID:             report.ID,
		URL:            report.URL,
		Status:         report.Status.String(),
		Score:          report.Score,
		Verdicts:       verdicts,
		WorstOffenders: offenders,
		Samples:        samples,
		PipelineErrors: report.PipelineErrors,
		GeneratedAt:    report.GeneratedAt,
		DurationMs:     report.Duration.Milliseconds(),
		CreatedAt:      time.Now(),
	}, nil
}

// ToEntity конвертирует DB Model в Domain Entity
func ToEntity(model *ReportDBModel) (*entity.HealthReport, error) {
	var verdicts []entity.Verdict
	if len(model.Verdicts) > 0 {
		if err := json.Unmarshal(model.Verdicts, &verdicts); err != nil {
			return nil, err
		}
	}

	var offenders []string
	if len(model.WorstOffenders) > 0 {
		if err := json.Unmarshal(model.WorstOffenders, &offenders); err != nil {
			return nil, err
		}
	}

	var samples []entity.MetricSample
	if len(model.Samples) > 0 {
		if err := json.Unmarshal(model.Samples, &samples); err != nil {
			return nil, err
		}
	}

	return &entity.HealthReport{
		ID:             model.ID,
		URL:            model.URL,
		Status:         valueobject.Status(model.Status),
		Score:          model.Score,
		Verdicts:       verdicts,
		WorstOffenders: offenders,
		Samples:        samples,
		GeneratedAt:    model.GeneratedAt,
		Duration:       time.Duration(model.DurationMs) * time.Millisecond,
		PipelineErrors: model.PipelineErrors,
	}, nil
}

// ScanReportRow сканирует строку БД в ReportDBModel
func ScanReportRow(row interface {
	Scan(dest ...interface{}) error
}) (*ReportDBModel, error) {
	var model ReportDBModel
	var samples sql.NullString

	err := row.Scan(
		&model.ID,
		&model.URL,
		&model.Status,
		&model.Score,
		&model.Verdicts,
		&model.WorstOffenders,
		&samples,
		&model.PipelineErrors,
		&model.GeneratedAt,
		&model.DurationMs,
		&model.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	if samples.Valid {
		model.Samples = []byte(samples.String)
	}

	return &model, nil
}
