package tiered

import (
	"context"
	"errors"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// ThresholdStorage комбинирует два backend-а порогов: предпочтительный
// (Redis) и синхронный fallback (локальный файл). Чтение идет через
// первый доступный, запись идет в оба, чтобы fallback не отставал.
type ThresholdStorage struct {
	primary  port.ThresholdStorage
	fallback port.ThresholdStorage
	logger   *logger.Logger
}

// NewThresholdStorage создает двухуровневое хранилище порогов.
// primary может быть nil: тогда работает только fallback.
func NewThresholdStorage(primary, fallback port.ThresholdStorage, log *logger.Logger) *ThresholdStorage {
	return &ThresholdStorage{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
}

// Load читает пороги из primary, а при любом сбое из fallback
func (s *ThresholdStorage) Load(ctx context.Context) (valueobject.ThresholdSet, error) {
	if s.primary != nil {
		set, err := s.primary.Load(ctx)
		if err == nil {
			return set, nil
		}
		if !errors.Is(err, port.ErrThresholdsNotFound) {
			s.logger.Warn("Primary threshold storage unavailable, using fallback", "error", err.Error())
		}
	}

	if s.fallback == nil {
		return valueobject.ThresholdSet{}, port.ErrThresholdsNotFound
	}

	return s.fallback.Load(ctx)
}

// Save записывает пороги в оба backend-а; сбой одного не блокирует другой.
// Ошибка возвращается только когда не записался ни один.
func (s *ThresholdStorage) Save(ctx context.Context, set valueobject.ThresholdSet) error {
	var primaryErr, fallbackErr error

	if s.primary != nil {
		if primaryErr = s.primary.Save(ctx, set); primaryErr != nil {
			s.logger.Warn("Failed to save thresholds to primary storage", "error", primaryErr.Error())
		}
	}

	if s.fallback != nil {
		if fallbackErr = s.fallback.Save(ctx, set); fallbackErr != nil {
			s.logger.Warn("Failed to save thresholds to fallback storage", "error", fallbackErr.Error())
		}
	}

	if s.primary != nil && primaryErr == nil {
		return nil
	}
	if s.fallback != nil && fallbackErr == nil {
		return nil
	}
	if primaryErr != nil {
		return primaryErr
	}
	return fallbackErr
}
