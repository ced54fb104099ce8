package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/catalog"
)

func TestSchemaHandler_Get(t *testing.T) {
	cat, err := catalog.Welfare()
	require.NoError(t, err)
	handler := NewSchemaHandler(cat, zap.NewNop())

	rr := httptest.NewRecorder()
	handler.Get(rr, httptest.NewRequest(http.MethodGet, "/api/schema", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Success bool           `json:"success"`
		Data    SchemaResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "tsql", body.Data.Dialect)

	tables := make([]string, 0, len(body.Data.Tables))
	for _, td := range body.Data.Tables {
		tables = append(tables, td.Table)
	}
	assert.Contains(t, tables, "citizens")
	assert.Contains(t, tables, "enrollments")
}
