package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Application
	applicationPort "github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/application/threshold"
	"github.com/dreschagin/page-health-analyzer/internal/application/usecase"

	// Domain
	"github.com/dreschagin/page-health-analyzer/internal/domain/repository"

	// Infrastructure
	redisCache "github.com/dreschagin/page-health-analyzer/internal/infrastructure/cache/redis"
	"github.com/dreschagin/page-health-analyzer/internal/infrastructure/collector"
	natsInfra "github.com/dreschagin/page-health-analyzer/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/page-health-analyzer/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/page-health-analyzer/internal/infrastructure/observability/cloudwatch"
	prommetrics "github.com/dreschagin/page-health-analyzer/internal/infrastructure/observability/prometheus"
	fileStorage "github.com/dreschagin/page-health-analyzer/internal/infrastructure/persistence/file"
	"github.com/dreschagin/page-health-analyzer/internal/infrastructure/persistence/postgres"
	redisStorage "github.com/dreschagin/page-health-analyzer/internal/infrastructure/persistence/redis"
	"github.com/dreschagin/page-health-analyzer/internal/infrastructure/persistence/tiered"

	// Interfaces
	httpInterface "github.com/dreschagin/page-health-analyzer/internal/interfaces/http"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/handler"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/internal/monitor"

	// Shared
	"github.com/dreschagin/page-health-analyzer/pkg/config"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/lib/pq"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Page Health Analyzer")

	// 3. Подключаемся к БД (история отчетов)
	var reportRepository repository.ReportRepository
	if cfg.Database.Enabled {
		db, dbErr := sql.Open("postgres", cfg.Database.DSN())
		if dbErr != nil {
			log.Error("Failed to connect to database", dbErr)
			os.Exit(1)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
		db.SetConnMaxIdleTime(cfg.Database.ConnMaxIdleTime)

		if pingErr := db.Ping(); pingErr != nil {
			log.Error("Failed to ping database", pingErr)
			os.Exit(1)
		}
		log.Info("Database connected successfully")

		reportRepository = postgres.NewPostgresReportRepository(db)
	} else {
		log.Warn("Database is disabled, report history will be unavailable")
	}

	// 4. Redis: кеш истории отчетов + primary-хранилище порогов
	var reportCache applicationPort.Cache
	var primaryThresholdStorage applicationPort.ThresholdStorage
	if cfg.Redis.Enabled {
		cacheImpl, cacheErr := redisCache.NewReportCache(
			cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Redis.CacheTTL,
			cfg.Redis.PoolSize, cfg.Redis.MinIdleConns,
			cfg.Redis.DialTimeout, cfg.Redis.ReadTimeout, cfg.Redis.WriteTimeout,
		)
		if cacheErr != nil {
			log.Warn("Failed to connect to Redis cache, continuing without caching", "error", cacheErr.Error())
		} else {
			reportCache = cacheImpl
			defer cacheImpl.Close()
			log.Info("Redis report cache initialized")
		}

		storageImpl, storageErr := redisStorage.NewThresholdStorage(
			cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB,
			cfg.Thresholds.StorageKey,
		)
		if storageErr != nil {
			log.Warn("Failed to connect Redis threshold storage, falling back to file", "error", storageErr.Error())
		} else {
			primaryThresholdStorage = storageImpl
			defer storageImpl.Close()
			log.Info("Redis threshold storage initialized")
		}
	} else {
		log.Warn("Redis is disabled, thresholds persist to file only")
	}

	// 5. Пороговая конфигурация: Redis первичен, файл страхует
	var fallbackThresholdStorage applicationPort.ThresholdStorage
	if cfg.Thresholds.FilePath != "" {
		fallbackThresholdStorage = fileStorage.NewThresholdStorage(cfg.Thresholds.FilePath)
	}
	thresholdStorage := tiered.NewThresholdStorage(primaryThresholdStorage, fallbackThresholdStorage, log)

	thresholdStore := threshold.NewStore(thresholdStorage, log)
	thresholdStore.ReloadFromStorage(context.Background())
	log.Info("Threshold store initialized")

	// 6. Сборщик метрик страницы
	pageCollector := collector.NewPageCollector(cfg.Collector)

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// 7. Observability

	// Prometheus: pull-модель, всегда включен
	metrics := prommetrics.New(prometheus.NewRegistry())
	cycleMetrics := []applicationPort.CycleMetricsPublisher{metrics}

	// CloudWatch Cycle Publisher (push-модель, опционально)
	var cyclePublisher *cloudwatch.CyclePublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewCyclePublisher(context.Background(),
			cloudwatch.CyclePublisherConfig{
				Namespace:       cfg.CloudWatch.Namespace,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.BufferSize,
				FlushInterval:   cfg.CloudWatch.FlushInterval,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch cycle publisher", initErr)
			os.Exit(1)
		}
		cyclePublisher = publisherImpl
		cycleMetrics = append(cycleMetrics, cyclePublisher)
		log.Info("CloudWatch cycle publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	// CloudWatch Logs Publisher
	var logsPublisher applicationPort.LogPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(context.Background(),
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// 8. NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(cfg.NATS.URL, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// 9. Use Cases

	runAnalysisUC := usecase.NewRunAnalysisUseCase(
		pageCollector,
		thresholdStore,
		usecase.RunAnalysisSinks{
			Repository:     reportRepository, // nil если БД выключена
			Notifier:       hub,
			EventPublisher: eventPublisher, // nil если NATS выключен
			CycleMetrics:   cycleMetrics,
			Cache:          reportCache, // nil если Redis выключен
		},
		usecase.RunAnalysisConfig{
			Timeout:      cfg.Analysis.Timeout,
			EventSubject: cfg.NATS.Subject,
		},
		log,
	)

	getRecentReportsUC := usecase.NewGetRecentReportsUseCase(
		reportRepository,
		reportCache,
		log,
	)

	// 10. Фоновый монитор (опционально)
	var monitorRunner *monitor.Runner
	if cfg.Monitor.Enabled {
		monitorRunner = monitor.NewRunner(runAnalysisUC, cfg.Monitor.URL, log, cfg.Monitor.Interval)
	}

	// 11. HTTP Handlers

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	analysisAPIHandler := handler.NewAnalysisAPIHandler(runAnalysisUC, log)
	thresholdAPIHandler := handler.NewThresholdAPIHandler(thresholdStore, log)
	reportAPIHandler := handler.NewReportAPIHandler(getRecentReportsUC, log)
	monitorAPIHandler := handler.NewMonitorAPIHandler(monitorRunner, log)
	websocketHandler := handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log)

	// Router
	router := httpInterface.NewRouter(
		analysisAPIHandler,
		thresholdAPIHandler,
		reportAPIHandler,
		monitorAPIHandler,
		websocketHandler,
		metrics,
		cfg.Security,
		log,
	)

	// 12. Запускаем фоновые процессы

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run()
	log.Info("WebSocket hub started")

	if monitorRunner != nil {
		go monitorRunner.Start(ctx)
		log.Info("Background monitor started",
			"url", cfg.Monitor.URL,
			"interval", cfg.Monitor.Interval.String())
	}

	// 13. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 14. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	// Останавливаем фоновый монитор
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Flush CloudWatch buffers before shutdown
	if cyclePublisher != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := cyclePublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	if logsPublisher != nil {
		log.Info("Flushing CloudWatch logs buffer...")
		if err := logsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch logs", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped gracefully")
}
