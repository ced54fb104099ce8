package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/apperrors"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/services"
)

// ValidateSQLRequest for POST /api/query/validate.
type ValidateSQLRequest struct {
	SQL string `json:"sql"`
}

// SamplesResponse for GET /api/query/samples.
type SamplesResponse struct {
	Categories []models.SampleCategory `json:"categories"`
}

// QueryHandler serves the translation pipeline over HTTP.
type QueryHandler struct {
	service services.NL2SQLService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(service services.NL2SQLService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the query handler's routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.Ask)
	mux.HandleFunc("POST /api/query/validate", h.Validate)
	mux.HandleFunc("GET /api/query/samples", h.Samples)
}

// Ask handles POST /api/query.
// Body: {"question": "...", "execute": true}. A question that cannot be
// translated or is rejected still returns 200; the verdict and message are in
// the translation.
func (h *QueryHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.TranslationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	resp, err := h.service.Ask(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: resp}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Validate handles POST /api/query/validate.
func (h *QueryHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req ValidateSQLRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := h.service.ValidateSQL(r.Context(), req.SQL)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: result}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Samples handles GET /api/query/samples.
func (h *QueryHandler) Samples(w http.ResponseWriter, r *http.Request) {
	data := SamplesResponse{Categories: services.SampleQuestions()}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *QueryHandler) handleServiceError(w http.ResponseWriter, err error) {
	var execErr *apperrors.ExecutorError
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, apperrors.ErrExecutorUnavailable):
		h.writeError(w, http.StatusServiceUnavailable, "executor_unavailable", "Query execution is not configured")
	case errors.As(err, &execErr):
		// The database message is returned as-is so the caller can see why
		// the statement failed.
		h.writeError(w, http.StatusBadGateway, "query_failed", execErr.Error())
	default:
		h.logger.Error("Query request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to process question")
	}
}

func (h *QueryHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
