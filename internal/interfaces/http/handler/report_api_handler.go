package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dreschagin/page-health-analyzer/internal/application/usecase"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// ReportAPIHandler обрабатывает запросы на чтение истории отчетов
type ReportAPIHandler struct {
	getReportsUC *usecase.GetRecentReportsUseCase
	logger       *logger.Logger
}

// NewReportAPIHandler создает новый handler
func NewReportAPIHandler(getReportsUC *usecase.GetRecentReportsUseCase, logger *logger.Logger) *ReportAPIHandler {
	return &ReportAPIHandler{
		getReportsUC: getReportsUC,
		logger:       logger,
	}
}

// RecentReports возвращает последние отчеты по всем URL
// GET /api/v1/reports/recent?limit=20
func (h *ReportAPIHandler) RecentReports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := parseLimit(r)

	reports, err := h.getReportsUC.Execute(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to get recent reports", err)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get reports",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// ReportsByURL возвращает последние отчеты для конкретного URL
// GET /api/v1/reports?url=https://example.com&limit=20
func (h *ReportAPIHandler) ReportsByURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	target := strings.TrimSpace(r.URL.Query().Get("url"))
	if target == "" {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "url query parameter is required",
		})
		return
	}

	limit := parseLimit(r)

	reports, err := h.getReportsUC.ExecuteByURL(r.Context(), target, limit)
	if err != nil {
		h.logger.Error("Failed to get reports by URL", err, "url", target)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to get reports",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"url":     target,
		"reports": reports,
		"count":   len(reports),
	})
}

// parseLimit читает limit из query; невалидные значения превращаются
// в 0 и клампятся в use case
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
