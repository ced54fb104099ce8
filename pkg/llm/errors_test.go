package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	err := NewErrorWithContext(ErrorTypeServer, "server error", true, errors.New("boom"),
		"gpt-4o", "https://example.openai.azure.com/openai", 503)

	msg := err.Error()
	assert.True(t, strings.HasPrefix(msg, "server_error HTTP 503 model=gpt-4o endpoint=example.openai.azure.com server error"), msg)
	assert.True(t, strings.HasSuffix(msg, ": boom"), msg)
	assert.NotContains(t, msg, "/openai", "endpoint is reduced to its host")
}

func TestError_Error_MinimalContext(t *testing.T) {
	err := NewError(ErrorTypeEmptyResponse, "no content in response", false, nil)
	assert.Equal(t, "empty_response no content in response", err.Error())
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
		status    int
	}{
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), ErrorTypeTimeout, true, 0},
		{"canceled", context.Canceled, ErrorTypeTimeout, false, 0},
		{"canceled text", errors.New("context canceled"), ErrorTypeTimeout, false, 0},
		{"openai 401", &openai.APIError{HTTPStatusCode: 401, Message: "Incorrect API key"}, ErrorTypeAuth, false, 401},
		{"openai 429", &openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, ErrorTypeRateLimited, true, 429},
		{"openai 500", &openai.APIError{HTTPStatusCode: 500, Message: "internal"}, ErrorTypeServer, true, 500},
		{"request error 502", &openai.RequestError{HTTPStatusCode: 502, Err: errors.New("bad gateway")}, ErrorTypeServer, true, 502},
		{"model missing", errors.New("The model `gpt-9` does not exist"), ErrorTypeModel, false, 0},
		{"azure deployment", errors.New("status 404: DeploymentNotFound"), ErrorTypeModel, false, 404},
		{"plain 404", errors.New("HTTP 404 page not found"), ErrorTypeEndpoint, false, 404},
		{"connection refused", errors.New("dial tcp 127.0.0.1:9: connect: connection refused"), ErrorTypeEndpoint, true, 0},
		{"anthropic overloaded", errors.New("overloaded_error: Overloaded"), ErrorTypeServer, true, 0},
		{"rate limit text", errors.New("too many requests"), ErrorTypeRateLimited, true, 0},
		{"unknown", errors.New("something odd"), ErrorTypeUnknown, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.retryable, got.IsRetryable())
			assert.Equal(t, tt.status, got.StatusCode)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_PreservesExistingError(t *testing.T) {
	original := NewError(ErrorTypeEmptyResponse, "empty", false, nil)
	wrapped := fmt.Errorf("translate: %w", original)

	assert.Same(t, original, ClassifyError(wrapped))
	assert.Equal(t, ErrorTypeEmptyResponse, GetErrorType(wrapped))
	assert.False(t, IsRetryable(wrapped))
}

func TestGetErrorType_PlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, GetErrorType(errors.New("x")))
	assert.False(t, IsRetryable(errors.New("x")))
}

func TestExtractStatusCode(t *testing.T) {
	tests := []struct {
		errStr string
		want   int
	}{
		{"HTTP 503 Service Unavailable", 503},
		{"status 429 rate limited", 429},
		{"status: 500", 500},
		{"code: 504 timeout", 504},
		{"Status: 404 Not Found", 404},
		{"processed 503 records", 0},
		{"port 5432 connection failed", 0},
		{"error after 429 seconds", 0},
	}

	for _, tt := range tests {
		t.Run(tt.errStr, func(t *testing.T) {
			assert.Equal(t, tt.want, extractStatusCode(tt.errStr))
		})
	}
}
