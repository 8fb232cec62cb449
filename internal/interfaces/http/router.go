package http

import (
	"net/http"

	prommetrics "github.com/dreschagin/page-health-analyzer/internal/infrastructure/observability/prometheus"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/handler"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/pkg/config"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// Router настраивает маршруты приложения
type Router struct {
	mux                 *http.ServeMux
	analysisAPIHandler  *handler.AnalysisAPIHandler
	thresholdAPIHandler *handler.ThresholdAPIHandler
	reportAPIHandler    *handler.ReportAPIHandler
	monitorAPIHandler   *handler.MonitorAPIHandler
	websocketHandler    *handler.WebSocketHandler
	metrics             *prommetrics.Metrics
	security            config.SecurityConfig
	logger              *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	analysisAPIHandler *handler.AnalysisAPIHandler,
	thresholdAPIHandler *handler.ThresholdAPIHandler,
	reportAPIHandler *handler.ReportAPIHandler,
	monitorAPIHandler *handler.MonitorAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	metrics *prommetrics.Metrics,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:                 http.NewServeMux(),
		analysisAPIHandler:  analysisAPIHandler,
		thresholdAPIHandler: thresholdAPIHandler,
		reportAPIHandler:    reportAPIHandler,
		monitorAPIHandler:   monitorAPIHandler,
		websocketHandler:    websocketHandler,
		metrics:             metrics,
		security:            security,
		logger:              logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Health endpoints are intentionally unauthenticated for probes.
	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Prometheus scrape endpoint stays unauthenticated too.
	rt.mux.Handle("/metrics", rt.metrics.Handler())

	authMiddleware := middleware.Auth(middleware.AuthConfig{
		Enabled:     rt.security.AuthEnabled,
		BearerToken: rt.security.AuthToken,
	}, rt.logger)

	// WebSocket: auth проверяется внутри handler'а, потому что браузер
	// не может выставить Authorization header при upgrade
	rt.mux.HandleFunc("/ws", rt.websocketHandler.HandleConnection)

	// API endpoints
	rt.mux.Handle("/api/v1/analyze", authMiddleware(http.HandlerFunc(rt.analysisAPIHandler.Analyze)))
	rt.mux.Handle("/api/v1/thresholds", authMiddleware(http.HandlerFunc(rt.thresholdAPIHandler.Thresholds)))
	rt.mux.Handle("/api/v1/thresholds/reset", authMiddleware(http.HandlerFunc(rt.thresholdAPIHandler.Reset)))
	rt.mux.Handle("/api/v1/thresholds/reload", authMiddleware(http.HandlerFunc(rt.thresholdAPIHandler.Reload)))
	rt.mux.Handle("/api/v1/reports/recent", authMiddleware(http.HandlerFunc(rt.reportAPIHandler.RecentReports)))
	rt.mux.Handle("/api/v1/reports", authMiddleware(http.HandlerFunc(rt.reportAPIHandler.ReportsByURL)))
	rt.mux.Handle("/api/v1/monitor", authMiddleware(http.HandlerFunc(rt.monitorAPIHandler.Status)))
	rt.mux.Handle("/api/v1/monitor/run", authMiddleware(http.HandlerFunc(rt.monitorAPIHandler.RunNow)))

	rateLimiter := middleware.NewIPRateLimiter(rt.security.RateLimitPerSecond, rt.security.RateLimitBurst)

	// Применяем middleware; Recovery снаружи, чтобы ловить паники
	// из всей цепочки
	var h http.Handler = rt.mux
	h = middleware.Compression(h)
	h = rt.metrics.Middleware(h)
	h = middleware.RateLimit(rateLimiter)(h)
	h = middleware.Logger(rt.logger)(h)
	h = middleware.Recovery(rt.logger)(h)

	return h
}
