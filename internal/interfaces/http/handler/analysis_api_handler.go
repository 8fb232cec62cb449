package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/dreschagin/page-health-analyzer/internal/application/dto"
	"github.com/dreschagin/page-health-analyzer/internal/application/usecase"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// AnalysisAPIHandler обрабатывает запросы на запуск анализа страницы
type AnalysisAPIHandler struct {
	runAnalysisUC *usecase.RunAnalysisUseCase
	logger        *logger.Logger
}

// NewAnalysisAPIHandler создает новый handler
func NewAnalysisAPIHandler(runAnalysisUC *usecase.RunAnalysisUseCase, logger *logger.Logger) *AnalysisAPIHandler {
	return &AnalysisAPIHandler{
		runAnalysisUC: runAnalysisUC,
		logger:        logger,
	}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

// Analyze запускает один цикл анализа для указанного URL
// POST /api/v1/analyze
func (h *AnalysisAPIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}

	target := strings.TrimSpace(req.URL)
	if err := validateTargetURL(target); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
		return
	}

	report, err := h.runAnalysisUC.Execute(r.Context(), target)
	if err != nil {
		if errors.Is(err, usecase.ErrAnalysisTimeout) {
			h.logger.Warn("Analysis request timed out", "url", target)
			middleware.WriteJSON(w, http.StatusGatewayTimeout, map[string]string{
				"error": "analysis did not finish within the configured timeout",
			})
			return
		}

		h.logger.Error("Analysis request failed", err, "url", target)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "analysis failed",
		})
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.ToHealthReportDTO(report))
}

// validateTargetURL проверяет, что URL пригоден для анализа
func validateTargetURL(raw string) error {
	if raw == "" {
		return errors.New("url is required")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return errors.New("url is not valid")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("url scheme must be http or https")
	}
	if parsed.Host == "" {
		return errors.New("url host is required")
	}

	return nil
}
