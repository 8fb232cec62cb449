package port

import (
	"context"
	"time"
)

// CycleStats describes one completed analysis cycle for external
// observability platforms.
type CycleStats struct {
	URL            string
	Status         string
	Score          int
	Duration       time.Duration
	PipelineErrors int
}

// CycleMetricsPublisher publishes per-cycle metrics to an external
// observability platform. Implementations buffer internally; failures must
// never affect the analysis result.
type CycleMetricsPublisher interface {
	// PublishCycle records one completed cycle.
	PublishCycle(ctx context.Context, stats CycleStats) error

	// Flush forces immediate publication of any buffered datums.
	// Should be called during graceful shutdown to prevent data loss.
	Flush(ctx context.Context) error
}
