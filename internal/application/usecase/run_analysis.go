package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/application/threshold"
	"github.com/dreschagin/page-health-analyzer/internal/domain/entity"
	"github.com/dreschagin/page-health-analyzer/internal/domain/repository"
	"github.com/dreschagin/page-health-analyzer/internal/domain/service"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// DefaultAnalysisTimeout ограничивает один полный цикл анализа
const DefaultAnalysisTimeout = 10 * time.Second

// errorPenalty задает штраф к оценке за каждую ошибку конвейера
const errorPenalty = 10

// ErrAnalysisTimeout возвращается, когда цикл не уложился в таймаут.
// Это единственный случай, когда Execute не возвращает отчет.
var ErrAnalysisTimeout = errors.New("analysis cycle timed out")

// PipelineError представляет восстановимую ошибку одной стадии конвейера.
// Никогда не поднимается к вызывающему: попадает в worst offenders отчета.
type PipelineError struct {
	Stage   string
	Message string
}

// RunAnalysisSinks перечисляет необязательных получателей готового отчета.
// Любое из полей может быть nil; сбой любого получателя не влияет
// ни на отчет, ни на результат цикла.
type RunAnalysisSinks struct {
	Repository     repository.ReportRepository
	Notifier       port.NotificationService
	EventPublisher port.EventPublisher
	CycleMetrics   []port.CycleMetricsPublisher
	Cache          port.Cache
}

// RunAnalysisConfig настраивает оркестратор
type RunAnalysisConfig struct {
	Timeout      time.Duration
	EventSubject string
}

// verdictEvaluator покрывает доменный сервис стадии оценки
type verdictEvaluator interface {
	Evaluate(kind valueobject.MetricKind, sample entity.MetricSample, threshold float64) entity.Verdict
}

// reportAggregator покрывает доменный сервис стадии агрегации
type reportAggregator interface {
	Aggregate(verdicts []entity.Verdict) entity.HealthReport
}

// RunAnalysisUseCase координирует один цикл анализа страницы:
// сбор метрик → чтение порогов → оценка → агрегация.
// Каждая стадия изолирована: сбой одного семейства метрик записывается
// как PipelineError и не прерывает цикл. Цикл целиком гонится с таймаутом.
type RunAnalysisUseCase struct {
	collector  port.PageMetricsCollector
	thresholds *threshold.Store
	evaluator  verdictEvaluator
	aggregator reportAggregator
	sinks      RunAnalysisSinks
	subject    string
	logger     *logger.Logger

	mu      sync.RWMutex
	timeout time.Duration
}

// NewRunAnalysisUseCase создает новый оркестратор
func NewRunAnalysisUseCase(
	collector port.PageMetricsCollector,
	thresholds *threshold.Store,
	sinks RunAnalysisSinks,
	cfg RunAnalysisConfig,
	log *logger.Logger,
) *RunAnalysisUseCase {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultAnalysisTimeout
	}

	return &RunAnalysisUseCase{
		collector:  collector,
		thresholds: thresholds,
		evaluator:  service.NewMetricEvaluator(),
		aggregator: service.NewHealthAggregator(),
		sinks:      sinks,
		subject:    cfg.EventSubject,
		logger:     log,
		timeout:    timeout,
	}
}

// Timeout возвращает текущий таймаут цикла
func (uc *RunAnalysisUseCase) Timeout() time.Duration {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.timeout
}

// SetTimeout меняет таймаут цикла; неположительные значения игнорируются
func (uc *RunAnalysisUseCase) SetTimeout(d time.Duration) {
	if d <= 0 {
		return
	}
	uc.mu.Lock()
	uc.timeout = d
	uc.mu.Unlock()
}

// Thresholds возвращает хранилище порогов для конфигурационных UI
func (uc *RunAnalysisUseCase) Thresholds() *threshold.Store {
	return uc.thresholds
}

// Execute выполняет один цикл анализа. Всегда возвращает отчет, кроме
// единственного случая истечения таймаута: тогда отчет не производится,
// а поздние результаты стадий отбрасываются.
func (uc *RunAnalysisUseCase) Execute(ctx context.Context, url string) (*entity.HealthReport, error) {
	timeout := uc.Timeout()
	cycleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startedAt := time.Now()

	// Буфер на 1: поздний результат после таймаута не блокирует goroutine
	// и никогда не попадает к вызывающему.
	resultCh := make(chan *entity.HealthReport, 1)
	go func() {
		resultCh <- uc.runCycle(cycleCtx, url)
	}()

	select {
	case report := <-resultCh:
		report.ID = uuid.New().String()
		report.URL = url
		report.Duration = time.Since(startedAt)

		uc.logger.Info("Analysis cycle completed",
			"url", url,
			"status", report.Status.String(),
			"score", report.Score,
			"pipeline_errors", report.PipelineErrors,
			"duration_ms", report.Duration.Milliseconds(),
		)

		uc.deliver(ctx, report)
		return report, nil

	case <-cycleCtx.Done():
		if ctx.Err() != nil {
			return nil, fmt.Errorf("analysis cancelled: %w", ctx.Err())
		}
		uc.logger.Error("Analysis cycle timed out", nil, "url", url, "timeout", timeout.String())
		return nil, fmt.Errorf("%w after %s", ErrAnalysisTimeout, timeout)
	}
}

// runCycle выполняет стадии конвейера. Никогда не возвращает ошибку:
// все восстановимые сбои складываются в отчет.
func (uc *RunAnalysisUseCase) runCycle(ctx context.Context, url string) *entity.HealthReport {
	var pipelineErrs []PipelineError

	// 1. Collection: каждое семейство собирается независимо;
	// сбой заменяется нулевым "unavailable" сэмплом.
	samples, collectErrs := uc.collectSamples(ctx, url)
	pipelineErrs = append(pipelineErrs, collectErrs...)

	// 2. Configuration: перечитываем персистентные пороги перед циклом,
	// при сбое оцениваем по встроенным defaults.
	thresholds, confErr := uc.loadThresholds(ctx)
	if confErr != nil {
		pipelineErrs = append(pipelineErrs, *confErr)
	}

	// 3. Evaluation: по каждому семейству с порогом, в каноническом порядке.
	// Сбой оценки подменяется синтетическим FAIL-вердиктом, чтобы агрегатор
	// всегда получал список фиксированной формы.
	verdicts := make([]entity.Verdict, 0, len(valueobject.ThresholdedKinds()))
	for _, kind := range valueobject.ThresholdedKinds() {
		limit, _ := thresholds.Value(kind)
		verdict, evalErr := uc.safeEvaluate(kind, samples[kind], limit)
		if evalErr != nil {
			pipelineErrs = append(pipelineErrs, *evalErr)
			verdict = entity.Verdict{
				Kind:      kind,
				Threshold: limit,
				Status:    valueobject.StatusFail,
				Message:   fmt.Sprintf("%s evaluation failed", kind.Label()),
			}
		}
		verdicts = append(verdicts, verdict)
	}

	// 4. Aggregation: единственная катастрофическая стадия.
	report, aggErr := uc.safeAggregate(verdicts)
	if aggErr != nil {
		return uc.failureReport(pipelineErrs, aggErr)
	}

	// 5. Post-processing: ошибки конвейера всегда попадают в offenders;
	// PASS при наличии ошибок деградирует до WARN со штрафом к оценке.
	if len(pipelineErrs) > 0 {
		messages := make([]string, 0, len(pipelineErrs))
		for _, pe := range pipelineErrs {
			messages = append(messages, pe.Message)
		}

		if report.Status == valueobject.StatusPass {
			report.Status = valueobject.StatusWarn
			report.Score -= errorPenalty * len(pipelineErrs)
			if report.Score < 0 {
				report.Score = 0
			}
			// Позитивное сообщение больше не соответствует действительности
			if len(report.WorstOffenders) == 1 && report.WorstOffenders[0] == service.AllHealthyMessage {
				report.WorstOffenders = nil
			}
		}

		report.WorstOffenders = append(messages, report.WorstOffenders...)
	}

	report.PipelineErrors = len(pipelineErrs)
	report.Samples = orderedSamples(samples)

	return &report
}

type collectOp struct {
	kind    valueobject.MetricKind
	collect func(context.Context, string) (entity.MetricSample, error)
}

// collectSamples опрашивает все семейства параллельно (как системный
// коллектор), сохраняя канонический порядок результатов и ошибок.
func (uc *RunAnalysisUseCase) collectSamples(ctx context.Context, url string) (map[valueobject.MetricKind]entity.MetricSample, []PipelineError) {
	ops := []collectOp{
		{valueobject.PageSize, uc.collector.CollectPageSize},
		{valueobject.LoadTime, uc.collector.CollectLoadTime},
		{valueobject.TTFB, uc.collector.CollectTTFB},
		{valueobject.RequestCount, uc.collector.CollectRequestCount},
	}

	type slot struct {
		sample entity.MetricSample
		err    error
	}
	slots := make([]slot, len(ops))

	var wg sync.WaitGroup
	for i, op := range ops {
		wg.Add(1)
		go func(i int, op collectOp) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					slots[i].err = fmt.Errorf("collector panic: %v", r)
				}
			}()
			slots[i].sample, slots[i].err = op.collect(ctx, url)
		}(i, op)
	}
	wg.Wait()

	samples := make(map[valueobject.MetricKind]entity.MetricSample, len(ops))
	var errs []PipelineError
	for i, op := range ops {
		if slots[i].err != nil {
			errs = append(errs, PipelineError{
				Stage:   "collection",
				Message: fmt.Sprintf("%s collection failed: %v", op.kind.Label(), slots[i].err),
			})
			samples[op.kind] = entity.UnavailableSample(op.kind)
			continue
		}
		samples[op.kind] = slots[i].sample
	}

	return samples, errs
}

// loadThresholds перечитывает и возвращает пороги; при любом сбое
// возвращает встроенные defaults плюс PipelineError.
func (uc *RunAnalysisUseCase) loadThresholds(ctx context.Context) (set valueobject.ThresholdSet, perr *PipelineError) {
	defer func() {
		if r := recover(); r != nil {
			set = valueobject.DefaultThresholds()
			perr = &PipelineError{
				Stage:   "configuration",
				Message: fmt.Sprintf("threshold configuration read failed: %v", r),
			}
		}
	}()

	uc.thresholds.ReloadFromStorage(ctx)
	return uc.thresholds.Current(), nil
}

func (uc *RunAnalysisUseCase) safeEvaluate(kind valueobject.MetricKind, sample entity.MetricSample, limit float64) (verdict entity.Verdict, perr *PipelineError) {
	defer func() {
		if r := recover(); r != nil {
			perr = &PipelineError{
				Stage:   "evaluation",
				Message: fmt.Sprintf("%s evaluation failed: %v", kind.Label(), r),
			}
		}
	}()

	return uc.evaluator.Evaluate(kind, sample, limit), nil
}

func (uc *RunAnalysisUseCase) safeAggregate(verdicts []entity.Verdict) (report entity.HealthReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("aggregation failed: %v", r)
		}
	}()

	return uc.aggregator.Aggregate(verdicts), nil
}

// failureReport строит минимальный FAIL-отчет при катастрофическом
// сбое агрегации: собранные ошибки плюс ошибка-триггер.
func (uc *RunAnalysisUseCase) failureReport(pipelineErrs []PipelineError, trigger error) *entity.HealthReport {
	uc.logger.Error("Aggregation stage failed, producing minimal failure report", trigger)

	offenders := make([]string, 0, len(pipelineErrs)+1)
	for _, pe := range pipelineErrs {
		offenders = append(offenders, pe.Message)
	}
	offenders = append(offenders, trigger.Error())

	return &entity.HealthReport{
		Status:         valueobject.StatusFail,
		Score:          0,
		Verdicts:       []entity.Verdict{},
		WorstOffenders: offenders,
		GeneratedAt:    time.Now(),
		PipelineErrors: len(pipelineErrs) + 1,
	}
}

// deliver рассылает готовый отчет необязательным получателям (best-effort)
func (uc *RunAnalysisUseCase) deliver(ctx context.Context, report *entity.HealthReport) {
	if uc.sinks.Repository != nil {
		if err := uc.sinks.Repository.Save(ctx, report); err != nil {
			uc.logger.Warn("Failed to persist health report", "error", err.Error())
		} else if uc.sinks.Cache != nil {
			// Инвалидируем кеш истории асинхронно, не блокируя ответ
			go func() {
				if err := uc.sinks.Cache.DeletePattern(context.Background(), "reports:*"); err != nil {
					uc.logger.Debug("Failed to invalidate report cache", "error", err.Error())
				}
			}()
		}
	}

	if uc.sinks.Notifier != nil {
		reportDTO := dto.ToHealthReportDTO(report)
		uc.sinks.Notifier.Broadcast(reportDTO)

		switch report.Status {
		case valueobject.StatusFail:
			uc.sinks.Notifier.BroadcastAlert(dto.NewAlertDTO(report, "critical", strings.Join(report.WorstOffenders, "; ")))
		case valueobject.StatusWarn:
			uc.sinks.Notifier.BroadcastAlert(dto.NewAlertDTO(report, "warning", strings.Join(report.WorstOffenders, "; ")))
		}
	}

	if uc.sinks.EventPublisher != nil && uc.subject != "" {
		if err := uc.sinks.EventPublisher.PublishEvent(ctx, uc.subject, dto.ToHealthReportDTO(report)); err != nil {
			uc.logger.Warn("Failed to publish report event", "error", err.Error())
		}
	}

	stats := port.CycleStats{
		URL:            report.URL,
		Status:         report.Status.String(),
		Score:          report.Score,
		Duration:       report.Duration,
		PipelineErrors: report.PipelineErrors,
	}
	for _, publisher := range uc.sinks.CycleMetrics {
		if err := publisher.PublishCycle(ctx, stats); err != nil {
			uc.logger.Warn("Failed to publish cycle metrics", "error", err.Error())
		}
	}
}

// FormatSummary возвращает короткую строку-сводку по отчету
func (uc *RunAnalysisUseCase) FormatSummary(report *entity.HealthReport) string {
	if report == nil {
		return ""
	}
	return fmt.Sprintf("%s (score %d/100): %s",
		report.Status.String(),
		report.Score,
		strings.Join(report.WorstOffenders, "; "),
	)
}

func orderedSamples(samples map[valueobject.MetricKind]entity.MetricSample) []entity.MetricSample {
	ordered := make([]entity.MetricSample, 0, len(samples))
	for _, kind := range valueobject.AllMetricKinds() {
		if sample, ok := samples[kind]; ok {
			ordered = append(ordered, sample)
		}
	}
	return ordered
}
