// Package llm provides clients for the language-model completion services that
// translate questions into SQL.
package llm

import (
	"context"
)

// Provider names accepted in configuration.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderAnthropic = "anthropic"
)

// GenerateResponseResult is a completion plus token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMClient defines the interface for completion calls.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse sends one system instruction and one user prompt and
	// returns the model text. Errors are always *Error.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model (or Azure deployment) name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string

	// GetProvider returns the provider name, used as a metrics label.
	GetProvider() string
}

// Ensure clients implement LLMClient at compile time.
var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
