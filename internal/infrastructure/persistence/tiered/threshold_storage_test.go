package tiered

import (
	"context"
	"errors"
	"testing"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

type stubStorage struct {
	set       valueobject.ThresholdSet
	loadErr   error
	saveErr   error
	saveCalls int
}

func (s *stubStorage) Load(_ context.Context) (valueobject.ThresholdSet, error) {
	return s.set, s.loadErr
}

func (s *stubStorage) Save(_ context.Context, set valueobject.ThresholdSet) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.set = set
	return nil
}

func TestLoadPrefersPrimary(t *testing.T) {
	primary := &stubStorage{set: valueobject.ThresholdSet{PageSize: 1, LoadTime: 2, TTFB: 3}}
	fallback := &stubStorage{set: valueobject.DefaultThresholds()}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	got, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != primary.set {
		t.Errorf("expected primary payload, got %+v", got)
	}
}

func TestLoadFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubStorage{loadErr: errors.New("connection refused")}
	fallback := &stubStorage{set: valueobject.DefaultThresholds()}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	got, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != fallback.set {
		t.Errorf("expected fallback payload, got %+v", got)
	}
}

func TestLoadNotFoundWhenBothEmpty(t *testing.T) {
	primary := &stubStorage{loadErr: port.ErrThresholdsNotFound}
	fallback := &stubStorage{loadErr: port.ErrThresholdsNotFound}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	_, err := storage.Load(context.Background())
	if !errors.Is(err, port.ErrThresholdsNotFound) {
		t.Fatalf("expected ErrThresholdsNotFound, got %v", err)
	}
}

func TestLoadWithoutPrimary(t *testing.T) {
	fallback := &stubStorage{set: valueobject.DefaultThresholds()}
	storage := NewThresholdStorage(nil, fallback, logger.New("error"))

	got, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != fallback.set {
		t.Errorf("expected fallback payload, got %+v", got)
	}
}

func TestSaveWritesBoth(t *testing.T) {
	primary := &stubStorage{}
	fallback := &stubStorage{}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	set := valueobject.DefaultThresholds()
	if err := storage.Save(context.Background(), set); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if primary.saveCalls != 1 || fallback.saveCalls != 1 {
		t.Errorf("expected both backends written, got primary=%d fallback=%d", primary.saveCalls, fallback.saveCalls)
	}
}

func TestSaveSurvivesPrimaryFailure(t *testing.T) {
	primary := &stubStorage{saveErr: errors.New("connection refused")}
	fallback := &stubStorage{}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	if err := storage.Save(context.Background(), valueobject.DefaultThresholds()); err != nil {
		t.Fatalf("Save() must succeed when fallback writes, got %v", err)
	}
}

func TestSaveFailsWhenAllBackendsFail(t *testing.T) {
	primary := &stubStorage{saveErr: errors.New("connection refused")}
	fallback := &stubStorage{saveErr: errors.New("read-only filesystem")}
	storage := NewThresholdStorage(primary, fallback, logger.New("error"))

	if err := storage.Save(context.Background(), valueobject.DefaultThresholds()); err == nil {
		t.Fatal("expected error when both backends fail")
	}
}
