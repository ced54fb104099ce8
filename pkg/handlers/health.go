package handlers

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/adapters/datasource"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/logging"
)

// Component states reported by /health.
const (
	StatusOK          = "ok"
	StatusDegraded    = "degraded"
	StatusDisabled    = "disabled"
	StatusUnavailable = "unavailable"
	StatusFallback    = "fallback-only"
)

const executorCheckTimeout = 3 * time.Second

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports the state of the collaborators.
type HealthResponse struct {
	Status   string `json:"status"`
	Model    string `json:"model"`
	Executor string `json:"executor"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg      *config.Config
	executor datasource.ConnectionTester
	logger   *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. executor may be nil when query
// execution is not configured.
func NewHealthHandler(cfg *config.Config, executor datasource.ConnectionTester, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, executor: executor, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health requests.
// The service stays "ok" without a model (pattern fallback answers) but is
// "degraded" when a configured executor cannot be reached.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   StatusOK,
		Model:    StatusFallback,
		Executor: StatusDisabled,
	}
	if h.cfg.LLM.Configured() {
		resp.Model = h.cfg.LLM.Provider
	}

	if h.executor != nil {
		ctx, cancel := context.WithTimeout(r.Context(), executorCheckTimeout)
		defer cancel()
		if err := h.executor.TestConnection(ctx); err != nil {
			h.logger.Warn("Executor health check failed", zap.String("error", logging.SanitizeError(err)))
			resp.Executor = StatusUnavailable
			resp.Status = StatusDegraded
		} else {
			resp.Executor = StatusOK
		}
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "welfare-nl2sql",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
