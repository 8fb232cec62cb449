package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// ThresholdStorage хранит набор порогов в локальном JSON-файле.
// Синхронный fallback на случай недоступного Redis.
type ThresholdStorage struct {
	path string
}

// NewThresholdStorage создает файловое хранилище порогов
func NewThresholdStorage(path string) *ThresholdStorage {
	return &ThresholdStorage{
		path: path,
	}
}

// Load читает набор порогов из файла
func (s *ThresholdStorage) Load(_ context.Context) (valueobject.ThresholdSet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return valueobject.ThresholdSet{}, port.ErrThresholdsNotFound
	}
	if err != nil {
		return valueobject.ThresholdSet{}, fmt.Errorf("failed to read thresholds file: %w", err)
	}

	var set valueobject.ThresholdSet
	if err := json.Unmarshal(data, &set); err != nil {
		return valueobject.ThresholdSet{}, fmt.Errorf("failed to unmarshal thresholds file: %w", err)
	}

	return set, nil
}

// Save атомарно записывает набор порогов: сначала во временный файл,
// затем rename, чтобы читатели никогда не видели частичную запись
func (s *ThresholdStorage) Save(_ context.Context, set valueobject.ThresholdSet) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create thresholds dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".thresholds-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write thresholds: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace thresholds file: %w", err)
	}

	return nil
}
