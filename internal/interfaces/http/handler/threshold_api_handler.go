package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dreschagin/page-health-analyzer/internal/application/threshold"
	"github.com/dreschagin/page-health-analyzer/internal/interfaces/http/middleware"
	"github.com/dreschagin/page-health-analyzer/pkg/logger"
)

// ThresholdAPIHandler обрабатывает запросы на чтение и изменение порогов
type ThresholdAPIHandler struct {
	store  *threshold.Store
	logger *logger.Logger
}

// NewThresholdAPIHandler создает новый handler
func NewThresholdAPIHandler(store *threshold.Store, logger *logger.Logger) *ThresholdAPIHandler {
	return &ThresholdAPIHandler{
		store:  store,
		logger: logger,
	}
}

// Thresholds обслуживает чтение и частичное обновление порогов
// GET /api/v1/thresholds возвращает текущие значения + defaults
// PUT /api/v1/thresholds применяет частичное обновление {"loadTime": 4000, ...}
func (h *ThresholdAPIHandler) Thresholds(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getThresholds(w, r)
	case http.MethodPut:
		h.updateThresholds(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ThresholdAPIHandler) getThresholds(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current":  h.store.Current(),
		"defaults": h.store.Defaults(),
	})
}

func (h *ThresholdAPIHandler) updateThresholds(w http.ResponseWriter, r *http.Request) {
	var partial map[string]float64
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		middleware.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid JSON body",
		})
		return
	}

	if err := h.store.Update(r.Context(), partial); err != nil {
		var vErr *threshold.ValidationError
		if errors.As(err, &vErr) {
			middleware.WriteJSON(w, http.StatusBadRequest, map[string]interface{}{
				"error": vErr.Error(),
				"key":   vErr.Key,
				"value": vErr.Value,
			})
			return
		}

		h.logger.Error("Failed to update thresholds", err)
		middleware.WriteJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to update thresholds",
		})
		return
	}

	h.logger.Info("Thresholds updated", "keys", len(partial))
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current": h.store.Current(),
	})
}

// Reset возвращает пороги к встроенным значениям по умолчанию
// POST /api/v1/thresholds/reset
func (h *ThresholdAPIHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.store.ResetToDefaults(r.Context())
	h.logger.Info("Thresholds reset to defaults")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current": h.store.Current(),
	})
}

// Reload перечитывает пороги из persistent-хранилища
// POST /api/v1/thresholds/reload
func (h *ThresholdAPIHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.store.ReloadFromStorage(r.Context())
	h.logger.Info("Thresholds reloaded from storage")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"current": h.store.Current(),
	})
}
