package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
	"github.com/ekaya-inc/welfare-nl2sql/pkg/models"
)

// SchemaResponse for GET /api/schema.
type SchemaResponse struct {
	Dialect string                    `json:"dialect"`
	Tables  []models.SchemaDescriptor `json:"tables"`
}

// SchemaHandler exposes the schema catalog the translator is grounded on.
type SchemaHandler struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(cat *catalog.Catalog, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{catalog: cat, logger: logger}
}

// RegisterRoutes registers the schema handler's routes on the given mux.
func (h *SchemaHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/schema", h.Get)
}

// Get handles GET /api/schema.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	data := SchemaResponse{
		Dialect: "tsql",
		Tables:  h.catalog.Describe(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: data}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
