package repository

import (
	"context"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
)

// ReportRepository определяет интерфейс для хранилища отчетов (Port)
// Реализация будет в Infrastructure слое
type ReportRepository interface {
	// Save сохраняет один отчет
	Save(ctx context.Context, report *entity.HealthReport) error

	// FindRecent возвращает последние отчеты, новые первыми
	FindRecent(ctx context.Context, limit int) ([]*entity.HealthReport, error)

	// FindByURL возвращает последние отчеты по конкретному URL
	FindByURL(ctx context.Context, url string, limit int) ([]*entity.HealthReport, error)

	// DeleteOlderThan удаляет отчеты старше указанного момента
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
