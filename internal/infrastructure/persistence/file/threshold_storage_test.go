package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

func TestLoadMissingFile(t *testing.T) {
	storage := NewThresholdStorage(filepath.Join(t.TempDir(), "thresholds.json"))

	_, err := storage.Load(context.Background())
	if !errors.Is(err, port.ErrThresholdsNotFound) {
		t.Fatalf("expected ErrThresholdsNotFound, got %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	storage := NewThresholdStorage(path)

	want := valueobject.ThresholdSet{
		PageSize: 1024 * 1024,
		LoadTime: 4000,
		TTFB:     2500,
	}

	if err := storage.Save(context.Background(), want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "thresholds.json")
	storage := NewThresholdStorage(path)

	if err := storage.Save(context.Background(), valueobject.DefaultThresholds()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	storage := NewThresholdStorage(path)
	if _, err := storage.Load(context.Background()); err == nil {
		t.Fatal("expected error for corrupt payload")
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	storage := NewThresholdStorage(path)

	first := valueobject.DefaultThresholds()
	if err := storage.Save(context.Background(), first); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := first
	second.LoadTime = 9000
	if err := storage.Save(context.Background(), second); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := storage.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.LoadTime != 9000 {
		t.Errorf("expected replaced value 9000, got %v", got.LoadTime)
	}
}
