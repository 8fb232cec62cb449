package threshold

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// ValidationError is raised by mutating operations on invalid input.
// It always identifies the offending key and value so that a
// configuration UI can highlight the bad field.
type ValidationError struct {
	Key    string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid threshold %q: %s", e.Key, e.Reason)
}

// Store is the single source of truth for threshold configuration.
// The live set is guarded by an RWMutex so concurrent analysis cycles can
// read while a configuration UI mutates. Consumers always receive value
// copies; mutation goes only through validated setters.
//
// Persistence is best-effort: a failed save is logged and the in-memory
// change stays usable for the current session. A failed load leaves the
// live set unchanged, so configuration unavailability never blocks
// analysis and never discards in-session values.
type Store struct {
	mu      sync.RWMutex
	current valueobject.ThresholdSet
	storage port.ThresholdStorage
	logger  *logger.Logger
}

// NewStore creates a store seeded with built-in defaults.
// storage may be nil; the store then works purely in memory.
func NewStore(storage port.ThresholdStorage, log *logger.Logger) *Store {
	return &Store{
		current: valueobject.DefaultThresholds(),
		storage: storage,
		logger:  log,
	}
}

// Current returns a copy of the live threshold set. Never fails.
func (s *Store) Current() valueobject.ThresholdSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Defaults returns a copy of the built-in defaults. Never fails.
func (s *Store) Defaults() valueobject.ThresholdSet {
	return valueobject.DefaultThresholds()
}

// Set validates and applies a single threshold, then persists best-effort.
// On validation failure the live set is left exactly as it was.
func (s *Store) Set(ctx context.Context, key string, value float64) error {
	kind, err := parseKey(key, value)
	if err != nil {
		return err
	}
	if !valueobject.ValidThresholdValue(value) {
		return &ValidationError{Key: key, Value: value, Reason: "value must be a finite number greater than zero"}
	}

	s.mu.Lock()
	s.current = s.current.WithValue(kind, value)
	updated := s.current
	s.mu.Unlock()

	s.persist(ctx, updated)
	return nil
}

// Update applies a partial set with all-or-nothing semantics: every entry is
// validated before any of them mutates the live set. The first invalid entry
// (in canonical key order, then any unknown keys) aborts the whole call.
func (s *Store) Update(ctx context.Context, partial map[string]float64) error {
	if len(partial) == 0 {
		return nil
	}

	// Validate known keys in canonical order so the reported entry
	// is deterministic.
	for _, kind := range valueobject.ThresholdedKinds() {
		value, ok := partial[kind.String()]
		if !ok {
			continue
		}
		if !valueobject.ValidThresholdValue(value) {
			return &ValidationError{Key: kind.String(), Value: value, Reason: "value must be a finite number greater than zero"}
		}
	}
	for key, value := range partial {
		if _, err := parseKey(key, value); err != nil {
			return err
		}
	}

	s.mu.Lock()
	updated := s.current
	for key, value := range partial {
		kind, _ := parseKey(key, value)
		updated = updated.WithValue(kind, value)
	}
	s.current = updated
	s.mu.Unlock()

	s.persist(ctx, updated)
	return nil
}

// ResetToDefaults replaces the live set with a fresh copy of defaults
// and persists.
func (s *Store) ResetToDefaults(ctx context.Context) {
	defaults := valueobject.DefaultThresholds()

	s.mu.Lock()
	s.current = defaults
	s.mu.Unlock()

	s.persist(ctx, defaults)
}

// ReloadFromStorage re-reads the persisted representation and replaces the
// in-memory set. Anything short of a valid loaded payload leaves the live
// set untouched: on a fresh store that means the built-in defaults, and
// mid-session it preserves validated changes that could not be persisted.
func (s *Store) ReloadFromStorage(ctx context.Context) {
	if s.storage == nil {
		return
	}

	set, err := s.storage.Load(ctx)
	switch {
	case errors.Is(err, port.ErrThresholdsNotFound):
		return
	case err != nil:
		s.logger.Warn("Failed to load thresholds, keeping current values", "error", err.Error())
		return
	case set.Validate() != nil:
		s.logger.Warn("Persisted thresholds are invalid, keeping current values")
		return
	}

	s.mu.Lock()
	s.current = set
	s.mu.Unlock()
}

// persist writes the set to storage best-effort.
func (s *Store) persist(ctx context.Context, set valueobject.ThresholdSet) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(ctx, set); err != nil {
		s.logger.Warn("Failed to persist thresholds, in-memory value kept", "error", err.Error())
	}
}

func parseKey(key string, value float64) (valueobject.MetricKind, error) {
	kind := valueobject.MetricKind(key)
	for _, allowed := range valueobject.ThresholdedKinds() {
		if kind == allowed {
			return kind, nil
		}
	}
	return "", &ValidationError{Key: key, Value: value, Reason: "unknown threshold key"}
}
