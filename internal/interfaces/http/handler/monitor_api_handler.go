package handler

import (
	"net/http"

	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/internal/monitor"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// MonitorAPIHandler обрабатывает запросы к фоновому монитору
type MonitorAPIHandler struct {
	runner *monitor.Runner
	logger *logger.Logger
}

// NewMonitorAPIHandler создает новый handler.
// runner может быть nil, если мониторинг выключен конфигурацией.
func NewMonitorAPIHandler(runner *monitor.Runner, logger *logger.Logger) *MonitorAPIHandler {
	return &MonitorAPIHandler{
		runner: runner,
		logger: logger,
	}
}

// Status возвращает снимок состояния фонового монитора
// GET /api/v1/monitor
func (h *MonitorAPIHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.runner == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enabled":  true,
		"snapshot": h.runner.Snapshot(),
	})
}

// RunNow запускает внеочередной цикл анализа
// POST /api/v1/monitor/run
func (h *MonitorAPIHandler) RunNow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.runner == nil {
		middleware.WriteJSON(w, http.StatusConflict, map[string]string{
			"error": "background monitor is disabled",
		})
		return
	}

	report, err := h.runner.RunOnce(r.Context())
	if err != nil {
		h.logger.Error("Manual monitor run failed", err)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "monitor run failed",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"report":   report,
		"snapshot": h.runner.Snapshot(),
	})
}
