package port

import (
	"context"
	"errors"

	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// ErrThresholdsNotFound is returned by Load when the backing store has no
// persisted threshold payload yet.
var ErrThresholdsNotFound = errors.New("thresholds not found in storage")

// ThresholdStorage is the persistence backend for the threshold set.
// Implementations live in the infrastructure layer (Redis as the preferred
// backend, a local JSON file as the synchronous fallback).
type ThresholdStorage interface {
	// Load reads the persisted threshold set. Returns ErrThresholdsNotFound
	// when nothing has been persisted yet.
	Load(ctx context.Context) (valueobject.ThresholdSet, error)

	// Save persists the threshold set, replacing any previous payload.
	Save(ctx context.Context, set valueobject.ThresholdSet) error
}
