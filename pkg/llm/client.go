package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const defaultAzureAPIVersion = "2024-02-15-preview"

// Client provides access to OpenAI-compatible and Azure OpenAI endpoints.
type Client struct {
	client    *openai.Client
	provider  string
	endpoint  string
	model     string
	maxTokens int
	logger    *zap.Logger
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider   string // openai, azure or anthropic
	Endpoint   string // Base URL; required for azure, optional otherwise
	Model      string // Model name, or deployment name for azure
	APIKey     string
	APIVersion string // Azure only
	MaxTokens  int
}

// NewClient creates a client for the openai and azure providers.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case ProviderAzure:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required for azure")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, strings.TrimSuffix(cfg.Endpoint, "/"))
		clientConfig.APIVersion = defaultAzureAPIVersion
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}
		// Deployment names are used verbatim.
		clientConfig.AzureModelMapperFunc = func(model string) string { return model }
	case ProviderOpenAI, "":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.Endpoint != "" {
			clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
		}
	default:
		return nil, fmt.Errorf("unsupported provider %q for openai client", cfg.Provider)
	}
	clientConfig.HTTPClient = newHTTPClient()

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		provider:  provider,
		endpoint:  clientConfig.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("llm"),
	}, nil
}

// GenerateResponse generates a chat completion response with usage stats.
func (c *Client) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	c.logger.Debug("LLM request",
		zap.String("provider", c.provider),
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(temperature),
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, c.classify(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, NewErrorWithContext(ErrorTypeEmptyResponse, "no content in response", false, nil, c.model, c.endpoint, 0)
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateResponseResult{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *Client) GetEndpoint() string {
	return c.endpoint
}

// GetProvider returns openai or azure.
func (c *Client) GetProvider() string {
	return c.provider
}

func (c *Client) classify(err error) error {
	llmErr := ClassifyError(err)
	llmErr.Model = c.model
	llmErr.Endpoint = c.endpoint
	return llmErr
}
