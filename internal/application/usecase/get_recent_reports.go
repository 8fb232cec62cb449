package usecase

import (
	"context"
	"fmt"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/repository"
	"github.com/dreschagin/page-health-analyzer/internal/infrastructure/cache/redis"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

const (
	// DefaultReportLimit используется, когда клиент не указал limit
	DefaultReportLimit = 20

	// MaxReportLimit ограничивает размер одной выборки истории
	MaxReportLimit = 200
)

// GetRecentReportsUseCase возвращает историю отчетов с кешированием
type GetRecentReportsUseCase struct {
	repository repository.ReportRepository
	cache      port.Cache
	logger     *logger.Logger
}

// NewGetRecentReportsUseCase создает новый use case истории отчетов
func NewGetRecentReportsUseCase(
	repository repository.ReportRepository,
	cache port.Cache,
	logger *logger.Logger,
) *GetRecentReportsUseCase {
	return &GetRecentReportsUseCase{
		repository: repository,
		cache:      cache,
		logger:     logger,
	}
}

// Execute возвращает последние отчеты, новые первыми
func (uc *GetRecentReportsUseCase) Execute(ctx context.Context, limit int) ([]*dto.HealthReportDTO, error) {
	if uc.repository == nil {
		return nil, fmt.Errorf("report history is unavailable: no repository configured")
	}
	limit = clampLimit(limit)

	// Если кеш не настроен, используем стандартный путь
	if uc.cache == nil {
		return uc.executeWithoutCache(ctx, limit)
	}

	cacheKey := redis.RecentReportsKey(limit)

	// Пытаемся получить из кеша
	var cachedDTOs []*dto.HealthReportDTO
	if err := uc.cache.Get(ctx, cacheKey, &cachedDTOs); err == nil {
		uc.logger.Debug("Cache hit for recent reports", "count", len(cachedDTOs))
		return cachedDTOs, nil
	}

	// Cache miss - получаем из БД
	uc.logger.Debug("Cache miss for recent reports, fetching from DB", "limit", limit)

	dtos, err := uc.executeWithoutCache(ctx, limit)
	if err != nil {
		return nil, err
	}

	// Сохраняем в кеш (асинхронно, не блокируем ответ)
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, dtos); err != nil {
			uc.logger.Warn("Failed to cache recent reports", "error", err.Error())
		}
	}()

	return dtos, nil
}

// ExecuteByURL возвращает последние отчеты по конкретному URL
func (uc *GetRecentReportsUseCase) ExecuteByURL(ctx context.Context, url string, limit int) ([]*dto.HealthReportDTO, error) {
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if uc.repository == nil {
		return nil, fmt.Errorf("report history is unavailable: no repository configured")
	}
	limit = clampLimit(limit)

	if uc.cache == nil {
		return uc.fetchByURL(ctx, url, limit)
	}

	cacheKey := redis.ReportsByURLKey(url, limit)

	var cachedDTOs []*dto.HealthReportDTO
	if err := uc.cache.Get(ctx, cacheKey, &cachedDTOs); err == nil {
		uc.logger.Debug("Cache hit for url report history", "url", url)
		return cachedDTOs, nil
	}

	dtos, err := uc.fetchByURL(ctx, url, limit)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, dtos); err != nil {
			uc.logger.Warn("Failed to cache url report history", "error", err.Error())
		}
	}()

	return dtos, nil
}

// executeWithoutCache получает отчеты без кеширования
func (uc *GetRecentReportsUseCase) executeWithoutCache(ctx context.Context, limit int) ([]*dto.HealthReportDTO, error) {
	reports, err := uc.repository.FindRecent(ctx, limit)
	if err != nil {
		uc.logger.Error("Failed to fetch recent reports", err)
		return nil, fmt.Errorf("failed to fetch recent reports: %w", err)
	}

	uc.logger.Debug("Fetched recent reports", "count", len(reports))

	return toReportDTOs(reports), nil
}

func (uc *GetRecentReportsUseCase) fetchByURL(ctx context.Context, url string, limit int) ([]*dto.HealthReportDTO, error) {
	reports, err := uc.repository.FindByURL(ctx, url, limit)
	if err != nil {
		uc.logger.Error("Failed to fetch url report history", err, "url", url)
		return nil, fmt.Errorf("failed to fetch report history for %s: %w", url, err)
	}

	return toReportDTOs(reports), nil
}

func toReportDTOs(reports []*entity.HealthReport) []*dto.HealthReportDTO {
	dtos := make([]*dto.HealthReportDTO, 0, len(reports))
	for _, report := range reports {
		dtos = append(dtos, dto.ToHealthReportDTO(report))
	}
	return dtos
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultReportLimit
	}
	if limit > MaxReportLimit {
		return MaxReportLimit
	}
	return limit
}
