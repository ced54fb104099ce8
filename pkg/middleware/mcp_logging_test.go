package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, logger *zap.Logger, reqBody, respBody string) *httptest.ResponseRecorder {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(respBody))
	})
	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(reqBody))
	rec := httptest.NewRecorder()
	MCPRequestLogger(logger)(handler).ServeHTTP(rec, req)
	return rec
}

func TestMCPRequestLogger(t *testing.T) {
	tests := []struct {
		name      string
		reqBody   string
		respBody  string
		level     zapcore.Level
		outcome   string
		tool      string
		extraKeys map[string]any
	}{
		{
			name:     "successful tool call",
			reqBody:  `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"validate_sql","arguments":{"sql":"SELECT TOP 10 * FROM schemes"}}}`,
			respBody: `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"{}"}]}}`,
			level:    zapcore.DebugLevel,
			outcome:  MCPOutcomeSuccess,
			tool:     "validate_sql",
		},
		{
			name:     "JSON-RPC error",
			reqBody:  `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"nope"}}`,
			respBody: `{"jsonrpc":"2.0","id":2,"error":{"code":-32602,"message":"tool not found"}}`,
			level:    zapcore.WarnLevel,
			outcome:  MCPOutcomeRPCError,
			tool:     "nope",
			extraKeys: map[string]any{
				"error_code":    int64(-32602),
				"error_message": "tool not found",
			},
		},
		{
			name:     "tool result flagged as error",
			reqBody:  `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"query_welfare_data","arguments":{"question":""}}}`,
			respBody: `{"jsonrpc":"2.0","id":3,"result":{"isError":true,"content":[{"type":"text","text":"question is required"}]}}`,
			level:    zapcore.InfoLevel,
			outcome:  MCPOutcomeToolError,
			tool:     "query_welfare_data",
		},
		{
			name:     "event stream response",
			reqBody:  `{"jsonrpc":"2.0","id":4,"method":"tools/list"}`,
			respBody: "event: message\ndata: {}\n\n",
			level:    zapcore.DebugLevel,
			outcome:  MCPOutcomeStreamed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			rec := serveMCP(t, zap.New(core), tt.reqBody, tt.respBody)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.respBody, rec.Body.String())
			require.Equal(t, 1, logs.Len())

			entry := logs.All()[0]
			assert.Equal(t, "MCP call", entry.Message)
			assert.Equal(t, tt.level, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, tt.outcome, fields["outcome"])
			if tt.tool != "" {
				assert.Equal(t, tt.tool, fields["tool"])
			} else {
				assert.NotContains(t, fields, "tool")
			}
			for k, v := range tt.extraKeys {
				assert.Equal(t, v, fields[k], k)
			}
		})
	}
}

func TestMCPRequestLogger_IncludesRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`))
	})
	chain := RequestID()(MCPRequestLogger(zap.New(core))(handler))

	req := httptest.NewRequest(http.MethodPost, "/mcp",
		bytes.NewBufferString(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"health"}}`))
	req.Header.Set(RequestIDHeader, "req-mcp-1")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-mcp-1", logs.All()[0].ContextMap()["request_id"])
}

func TestMCPRequestLogger_TransportRequests(t *testing.T) {
	t.Run("passes through non-JSON bodies", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core), `not json`, `ok`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, "MCP transport request", logs.All()[0].Message)
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		core, logs := observer.New(zapcore.DebugLevel)

		rec := serveMCP(t, zap.New(core), strings.Repeat("x", maxMCPBody+1), `ok`)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, 1, logs.FilterMessage("Failed to read MCP request body").Len())
	})

	t.Run("nil logger passes through", func(t *testing.T) {
		rec := serveMCP(t, nil, `{}`, `{"result":{}}`)
		assert.Equal(t, `{"result":{}}`, rec.Body.String())
	})
}

func TestSanitizeArguments(t *testing.T) {
	t.Run("redacts sensitive keywords", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"password":      "secret",
			"api_key":       "abc123",
			"Access_Token":  "xyz789",
			"client_secret": "hidden",
			"question":      "how many schemes",
		})

		assert.Equal(t, "[REDACTED]", result["password"])
		assert.Equal(t, "[REDACTED]", result["api_key"])
		assert.Equal(t, "[REDACTED]", result["Access_Token"])
		assert.Equal(t, "[REDACTED]", result["client_secret"])
		assert.Equal(t, "how many schemes", result["question"])
	})

	t.Run("masks citizen identifiers in strings", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"question": "schemes for aadhaar 2345 6789 0123",
		})

		q := result["question"].(string)
		assert.NotContains(t, q, "2345 6789 0123")
		assert.Contains(t, q, "[AADHAAR]")
	})

	t.Run("truncates long strings", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{
			"question": strings.Repeat("x", 250),
		})

		assert.Less(t, len(result["question"].(string)), 250)
	})

	t.Run("nil and empty", func(t *testing.T) {
		assert.Nil(t, sanitizeArguments(nil))
		assert.Empty(t, sanitizeArguments(map[string]any{}))
	})

	t.Run("preserves non-string values", func(t *testing.T) {
		result := sanitizeArguments(map[string]any{"execute": true, "limit": 5.0})

		assert.Equal(t, true, result["execute"])
		assert.Equal(t, 5.0, result["limit"])
	})
}
