package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing LLM functionality.
// Set the function fields to control behavior in tests.
type MockLLMClient struct {
	// GenerateResponseFunc is called when GenerateResponse is invoked.
	// If nil, returns empty result and nil error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	// Provider is returned by GetProvider. Defaults to "mock".
	Provider string

	mu sync.Mutex
	// Call tracking for verification
	GenerateResponseCalls int
	LastPrompt            string
	LastSystemMessage     string
	LastTemperature       float64
}

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
		Provider: "mock",
	}
}

// NewMockLLMClientReturning creates a mock that always answers content.
func NewMockLLMClientReturning(content string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateResponseFunc = func(context.Context, string, string, float64) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: content}, nil
	}
	return m
}

// GenerateResponse implements LLMClient.
func (m *MockLLMClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.GenerateResponseCalls++
	m.LastPrompt = prompt
	m.LastSystemMessage = systemMessage
	m.LastTemperature = temperature
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature)
	}
	return &GenerateResponseResult{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements LLMClient.
func (m *MockLLMClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// GetProvider implements LLMClient.
func (m *MockLLMClient) GetProvider() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}

// Calls returns the number of GenerateResponse calls so far.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateResponseCalls
}

// Reset clears call tracking counters.
func (m *MockLLMClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateResponseCalls = 0
	m.LastPrompt = ""
	m.LastSystemMessage = ""
	m.LastTemperature = 0
}

// Ensure MockLLMClient implements LLMClient at compile time.
var _ LLMClient = (*MockLLMClient)(nil)
