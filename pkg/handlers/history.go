package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/repositories"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
)

// HistoryResponse for GET /api/history.
type HistoryResponse struct {
	Entries []*models.QueryHistoryEntry `json:"entries"`
}

// HistoryHandler lists recently asked questions.
type HistoryHandler struct {
	history services.QueryHistoryService
	logger  *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(history services.QueryHistoryService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{history: history, logger: logger}
}

// RegisterRoutes registers the history handler's routes on the given mux.
func (h *HistoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", h.List)
}

// List handles GET /api/history?limit=N.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := repositories.DefaultHistoryListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > repositories.MaxHistoryListLimit {
			if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit",
				"limit must be between 1 and "+strconv.Itoa(repositories.MaxHistoryListLimit)); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		limit = n
	}

	entries, err := h.history.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list query history", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list history"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if entries == nil {
		entries = []*models.QueryHistoryEntry{}
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: HistoryResponse{Entries: entries}}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
