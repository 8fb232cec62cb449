package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

type mockReportRepository struct {
	reports   []*entity.HealthReport
	err       error
	findCalls int
	lastLimit int
	lastURL   string
}

func (m *mockReportRepository) Save(_ context.Context, _ *entity.HealthReport) error { return nil }

func (m *mockReportRepository) FindRecent(_ context.Context, limit int) ([]*entity.HealthReport, error) {
	m.findCalls++
	m.lastLimit = limit
	return m.reports, m.err
}

func (m *mockReportRepository) FindByURL(_ context.Context, url string, limit int) ([]*entity.HealthReport, error) {
	m.findCalls++
	m.lastURL = url
	m.lastLimit = limit
	return m.reports, m.err
}

func (m *mockReportRepository) DeleteOlderThan(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type mockReportCache struct {
	hit     []*dto.HealthReportDTO
	setKeys []string
}

func (m *mockReportCache) Get(_ context.Context, _ string, dest interface{}) error {
	if m.hit == nil {
		return errors.New("cache miss: key not found")
	}
	if out, ok := dest.(*[]*dto.HealthReportDTO); ok {
		*out = m.hit
	}
	return nil
}

func (m *mockReportCache) Set(_ context.Context, key string, _ interface{}) error {
	m.setKeys = append(m.setKeys, key)
	return nil
}

func (m *mockReportCache) Delete(_ context.Context, _ string) error        { return nil }
func (m *mockReportCache) DeletePattern(_ context.Context, _ string) error { return nil }
func (m *mockReportCache) Close() error                                    { return nil }

func sampleReport(id string) *entity.HealthReport {
	return &entity.HealthReport{
		ID:          id,
		URL:         "https://example.com",
		Status:      valueobject.StatusPass,
		Score:       100,
		GeneratedAt: time.Now(),
	}
}

func TestGetRecentReportsCacheMiss(t *testing.T) {
	repo := &mockReportRepository{reports: []*entity.HealthReport{sampleReport("a"), sampleReport("b")}}
	cache := &mockReportCache{}
	uc := NewGetRecentReportsUseCase(repo, cache, logger.New("error"))

	dtos, err := uc.Execute(context.Background(), 10)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(dtos) != 2 {
		t.Errorf("expected 2 reports, got %d", len(dtos))
	}
	if repo.findCalls != 1 || repo.lastLimit != 10 {
		t.Errorf("expected one repo call with limit 10, got calls=%d limit=%d", repo.findCalls, repo.lastLimit)
	}
}

func TestGetRecentReportsCacheHit(t *testing.T) {
	repo := &mockReportRepository{}
	cache := &mockReportCache{hit: []*dto.HealthReportDTO{{ID: "cached"}}}
	uc := NewGetRecentReportsUseCase(repo, cache, logger.New("error"))

	dtos, err := uc.Execute(context.Background(), 10)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(dtos) != 1 || dtos[0].ID != "cached" {
		t.Errorf("expected cached payload, got %+v", dtos)
	}
	if repo.findCalls != 0 {
		t.Errorf("repository must not be hit on cache hit, got %d calls", repo.findCalls)
	}
}

func TestGetRecentReportsWithoutCache(t *testing.T) {
	repo := &mockReportRepository{reports: []*entity.HealthReport{sampleReport("a")}}
	uc := NewGetRecentReportsUseCase(repo, nil, logger.New("error"))

	dtos, err := uc.Execute(context.Background(), 5)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(dtos) != 1 {
		t.Errorf("expected 1 report, got %d", len(dtos))
	}
}

func TestGetRecentReportsRepositoryError(t *testing.T) {
	repo := &mockReportRepository{err: errors.New("connection refused")}
	uc := NewGetRecentReportsUseCase(repo, nil, logger.New("error"))

	if _, err := uc.Execute(context.Background(), 5); err == nil {
		t.Fatal("expected error from repository")
	}
}

func TestGetRecentReportsLimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultReportLimit},
		{"negative uses default", -5, DefaultReportLimit},
		{"above max is clamped", MaxReportLimit + 1, MaxReportLimit},
		{"in range passes through", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockReportRepository{}
			uc := NewGetRecentReportsUseCase(repo, nil, logger.New("error"))

			if _, err := uc.Execute(context.Background(), tt.limit); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if repo.lastLimit != tt.want {
				t.Errorf("expected limit %d, got %d", tt.want, repo.lastLimit)
			}
		})
	}
}

func TestGetReportsByURL(t *testing.T) {
	repo := &mockReportRepository{reports: []*entity.HealthReport{sampleReport("a")}}
	uc := NewGetRecentReportsUseCase(repo, nil, logger.New("error"))

	dtos, err := uc.ExecuteByURL(context.Background(), "https://example.com", 3)
	if err != nil {
		t.Fatalf("ExecuteByURL() error = %v", err)
	}
	if len(dtos) != 1 || repo.lastURL != "https://example.com" {
		t.Errorf("unexpected result: dtos=%d url=%q", len(dtos), repo.lastURL)
	}

	if _, err := uc.ExecuteByURL(context.Background(), "", 3); err == nil {
		t.Fatal("expected error for empty url")
	}
}
