package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	_ "github.com/lib/pq"
)

const reportColumns = `id, url, status, score, verdicts, worst_offenders, samples, pipeline_errors, generated_at, duration_ms, created_at`

// PostgresReportRepository реализует repository.ReportRepository для PostgreSQL
type PostgresReportRepository struct {
	db *sql.DB
}

// NewPostgresReportRepository создает новый PostgreSQL repository
func NewPostgresReportRepository(db *sql.DB) *PostgresReportRepository {
	return &PostgresReportRepository{
		db: db,
	}
}

// Save сохраняет один отчет
func (r *PostgresReportRepository) Save(ctx context.Context, report *entity.HealthReport) error {
	model, err := ToDBModel(report)
	if err != nil {
		return fmt.Errorf("failed to convert to DB model: %w", err)
	}

	query := `
		INSERT INTO health_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		model.ID,
		model.URL,
		model.Status,
		model.Score,
		model.Verdicts,
		model.WorstOffenders,
		model.Samples,
		model.PipelineErrors,
		model.GeneratedAt,
		model.DurationMs,
		model.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}

	return nil
}

// FindRecent возвращает последние отчеты, новые первыми
func (r *PostgresReportRepository) FindRecent(ctx context.Context, limit int) ([]*entity.HealthReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM health_reports
		ORDER BY generated_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	return r.scanReports(rows)
}

// FindByURL возвращает последние отчеты по конкретному URL
func (r *PostgresReportRepository) FindByURL(ctx context.Context, url string, limit int) ([]*entity.HealthReport, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM health_reports
		WHERE url = $1
		ORDER BY generated_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, url, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by url: %w", err)
	}
	defer rows.Close()

	return r.scanReports(rows)
}

// DeleteOlderThan удаляет отчеты старше указанного момента
func (r *PostgresReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM health_reports
		WHERE generated_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old reports: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return rowsAffected, nil
}

// scanReports сканирует несколько строк в слайс отчетов
func (r *PostgresReportRepository) scanReports(rows *sql.Rows) ([]*entity.HealthReport, error) {
	var reports []*entity.HealthReport

	for rows.Next() {
		model, err := ScanReportRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}

		report, err := ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert to entity: %w", err)
		}

		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return reports, nil
}
