package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies a failed completion call.
type ErrorType string

const (
	ErrorTypeNone          ErrorType = ""
	ErrorTypeAuth          ErrorType = "auth"
	ErrorTypeEndpoint      ErrorType = "endpoint"
	ErrorTypeModel         ErrorType = "model_not_found"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeRateLimited   ErrorType = "rate_limited"
	ErrorTypeServer        ErrorType = "server_error"
	ErrorTypeEmptyResponse ErrorType = "empty_response"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// ErrNotConfigured is returned by New when no provider credentials are set.
var ErrNotConfigured = errors.New("llm not configured")

// Error represents a structured LLM error with classification.
type Error struct {
	Type       ErrorType
	Message    string
	Retryable  bool  // informational; the translator never retries
	Cause      error // underlying error
	StatusCode int   // HTTP status code if applicable
	Model      string
	Endpoint   string
}

// Error implements the error interface. Only the endpoint host is printed.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	if host := endpointHost(e.Endpoint); host != "" {
		parts = append(parts, fmt.Sprintf("endpoint=%s", host))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements retry.RetryableError.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured LLM error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// NewErrorWithContext creates a new structured LLM error with model and endpoint.
func NewErrorWithContext(errType ErrorType, message string, retryable bool, cause error, model, endpoint string, statusCode int) *Error {
	return &Error{
		Type:       errType,
		Message:    message,
		Retryable:  retryable,
		Cause:      cause,
		Model:      model,
		Endpoint:   endpoint,
		StatusCode: statusCode,
	}
}

// statusCodePattern only matches a code introduced by HTTP, status or code so
// that ports and counts in messages are not mistaken for status codes.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:http|status|code)[\s:=]+([1-5]\d{2})\b`)

func extractStatusCode(errStr string) int {
	m := statusCodePattern.FindStringSubmatch(errStr)
	if m == nil {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// ClassifyError categorizes an error and returns a structured Error.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(ErrorTypeTimeout, "request timeout", true, err)
	}
	if errors.Is(err, context.Canceled) {
		return NewError(ErrorTypeTimeout, "request cancelled", false, err)
	}

	statusCode := extractStatusCode(err.Error())
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		statusCode = reqErr.HTTPStatusCode
	}

	lower := strings.ToLower(err.Error())
	classified := classifyMessage(statusCode, lower)
	classified.Cause = err
	classified.StatusCode = statusCode
	return classified
}

func classifyMessage(statusCode int, lower string) *Error {
	switch {
	case statusCode == 401 || statusCode == 403 ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "authentication"):
		return NewError(ErrorTypeAuth, "authentication failed", false, nil)

	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return NewError(ErrorTypeModel, "model not found", false, nil)

	case strings.Contains(lower, "deploymentnotfound"):
		return NewError(ErrorTypeModel, "deployment not found", false, nil)

	case statusCode == 404:
		return NewError(ErrorTypeEndpoint, "endpoint not found", false, nil)

	case statusCode == 429 || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests"):
		return NewError(ErrorTypeRateLimited, "rate limited", true, nil)

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host"):
		return NewError(ErrorTypeEndpoint, "connection failed", true, nil)

	case strings.Contains(lower, "context canceled"):
		return NewError(ErrorTypeTimeout, "request cancelled", false, nil)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return NewError(ErrorTypeTimeout, "request timeout", true, nil)

	case statusCode >= 500 || strings.Contains(lower, "overloaded"):
		return NewError(ErrorTypeServer, "server error", true, nil)
	}

	return NewError(ErrorTypeUnknown, "llm error", false, nil)
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}

func endpointHost(endpoint string) string {
	if endpoint == "" {
		return ""
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}
