package port

import (
	"context"

	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
)

// PageMetricsCollector определяет интерфейс сбора метрик страницы (Port)
// Реализация будет в Infrastructure слое.
// Каждая операция независима: сбой одного семейства не влияет на остальные,
// оркестратор обязан перехватывать ошибку по каждому семейству отдельно.
type PageMetricsCollector interface {
	// CollectPageSize измеряет полный размер страницы в байтах
	CollectPageSize(ctx context.Context, url string) (entity.MetricSample, error)

	// CollectLoadTime измеряет полное время загрузки в миллисекундах
	CollectLoadTime(ctx context.Context, url string) (entity.MetricSample, error)

	// CollectTTFB измеряет время до первого байта в миллисекундах
	CollectTTFB(ctx context.Context, url string) (entity.MetricSample, error)

	// CollectRequestCount считает количество ресурсных запросов страницы
	CollectRequestCount(ctx context.Context, url string) (entity.MetricSample, error)
}
