package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAnthropicClient_GenerateResponse(t *testing.T) {
	var gotBody map[string]any
	var gotPath, gotRequestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get(requestIDHeader)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
		  "id": "msg_1",
		  "type": "message",
		  "role": "assistant",
		  "model": "claude-test",
		  "content": [{"type": "text", "text": "SELECT TOP 10 name FROM schemes"}],
		  "stop_reason": "end_turn",
		  "usage": {"input_tokens": 90, "output_tokens": 12}
		}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{
		Provider: ProviderAnthropic,
		Endpoint: server.URL,
		Model:    "claude-test",
		APIKey:   "key",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	result, err := client.GenerateResponse(WithRequestID(context.Background(), "req-9"), "list schemes", "SQL only", 0.1)
	require.NoError(t, err)

	assert.Equal(t, "SELECT TOP 10 name FROM schemes", result.Content)
	assert.Equal(t, 102, result.TotalTokens)
	assert.Equal(t, "/messages", gotPath)
	assert.Equal(t, "req-9", gotRequestID)
	assert.Equal(t, "SQL only", gotBody["system"])
	assert.EqualValues(t, 800, gotBody["max_tokens"])
	assert.Equal(t, ProviderAnthropic, client.GetProvider())
}

func TestAnthropicClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg_2", "type": "message", "role": "assistant", "content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	defer server.Close()

	client, err := NewAnthropicClient(&Config{Endpoint: server.URL, Model: "claude-test", APIKey: "key"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.GenerateResponse(context.Background(), "q", "s", 0.1)
	assert.Equal(t, ErrorTypeEmptyResponse, GetErrorType(err))
}

func TestNewAnthropicClient_RequiresKey(t *testing.T) {
	_, err := NewAnthropicClient(&Config{Model: "claude-test"}, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "api key is required")
}
