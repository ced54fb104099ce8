package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/welfare-nl2sql/pkg/config"
)

func TestHealthHandler_Health(t *testing.T) {
	tests := []struct {
		name         string
		llm          config.LLMConfig
		executor     *mockConnectionTester
		wantStatus   string
		wantModel    string
		wantExecutor string
	}{
		{
			name:         "no model and no executor",
			wantStatus:   StatusOK,
			wantModel:    StatusFallback,
			wantExecutor: StatusDisabled,
		},
		{
			name:         "model configured and executor reachable",
			llm:          config.LLMConfig{Provider: "openai", APIKey: "sk-test"},
			executor:     &mockConnectionTester{},
			wantStatus:   StatusOK,
			wantModel:    "openai",
			wantExecutor: StatusOK,
		},
		{
			name:         "executor unreachable",
			executor:     &mockConnectionTester{err: errors.New("dial tcp: connection refused")},
			wantStatus:   StatusDegraded,
			wantModel:    StatusFallback,
			wantExecutor: StatusUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Version: "test-version", Env: "test", LLM: tt.llm}
			var handler *HealthHandler
			if tt.executor != nil {
				handler = NewHealthHandler(cfg, tt.executor, zap.NewNop())
			} else {
				handler = NewHealthHandler(cfg, nil, zap.NewNop())
			}

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()
			handler.Health(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, tt.wantModel, resp.Model)
			assert.Equal(t, tt.wantExecutor, resp.Executor)
		})
	}
}

func TestHealthHandler_Ping(t *testing.T) {
	cfg := &config.Config{Version: "1.2.3", Env: "test"}
	handler := NewHealthHandler(cfg, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	handler.Ping(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp PingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "welfare-nl2sql", resp.Service)
	assert.Equal(t, "test", resp.Environment)
	assert.NotEmpty(t, resp.GoVersion)
}
