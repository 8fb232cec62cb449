package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/internal/application/usecase"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// Snapshot is the monitor state exposed over the API.
type Snapshot struct {
	URL        string               `json:"url"`
	StartedAt  time.Time            `json:"started_at"`
	Interval   time.Duration        `json:"interval"`
	LastRunAt  time.Time            `json:"last_run_at,omitempty"`
	LastError  string               `json:"last_error,omitempty"`
	LastReport *dto.HealthReportDTO `json:"last_report,omitempty"`
}

// Runner periodically re-analyzes the configured URL and keeps the
// outcome of the last cycle for the status endpoint.
type Runner struct {
	analysis *usecase.RunAnalysisUseCase
	url      string
	log      *logger.Logger
	interval time.Duration

	runMu sync.Mutex

	mu         sync.RWMutex
	startedAt  time.Time
	lastRunAt  time.Time
	lastError  string
	lastReport *dto.HealthReportDTO
}

func NewRunner(analysis *usecase.RunAnalysisUseCase, url string, log *logger.Logger, interval time.Duration) *Runner {
	return &Runner{
		analysis:  analysis,
		url:       url,
		log:       log,
		interval:  interval,
		startedAt: time.Now(),
	}
}

// Start blocks until ctx is cancelled, running one analysis per tick.
func (r *Runner) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Первый замер сразу, не дожидаясь первого тика
	if _, err := r.RunOnce(ctx); err != nil && ctx.Err() != nil {
		return
	}

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				// RunOnce already stores error state and logs context.
				continue
			}
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes a single monitored analysis cycle.
func (r *Runner) RunOnce(ctx context.Context) (*dto.HealthReportDTO, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	report, err := r.analysis.Execute(ctx, r.url)
	runAt := time.Now()

	if err != nil {
		wrappedErr := fmt.Errorf("monitor cycle failed: %w", err)
		r.updateFailure(runAt, wrappedErr)
		r.log.Error("Monitor cycle failed", wrappedErr, "url", r.url)
		return nil, wrappedErr
	}

	reportDTO := dto.ToHealthReportDTO(report)
	r.updateSuccess(runAt, reportDTO)

	r.log.Info("Monitor cycle completed",
		"url", r.url,
		"status", reportDTO.Status,
		"score", reportDTO.Score,
	)

	return reportDTO, nil
}

// Snapshot returns a copy of the monitor state.
func (r *Runner) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := Snapshot{
		URL:       r.url,
		StartedAt: r.startedAt,
		Interval:  r.interval,
		LastRunAt: r.lastRunAt,
		LastError: r.lastError,
	}

	if r.lastReport != nil {
		copied := *r.lastReport
		copied.Verdicts = append([]dto.VerdictDTO(nil), r.lastReport.Verdicts...)
		copied.WorstOffenders = append([]string(nil), r.lastReport.WorstOffenders...)
		snapshot.LastReport = &copied
	}

	return snapshot
}

func (r *Runner) updateFailure(runAt time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = err.Error()
}

func (r *Runner) updateSuccess(runAt time.Time, report *dto.HealthReportDTO) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastRunAt = runAt
	r.lastError = ""
	r.lastReport = report
}
