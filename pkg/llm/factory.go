package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the client for cfg.Provider. It returns ErrNotConfigured when
// neither an API key nor an endpoint is set; callers then run without a model
// and rely on pattern fallback.
func New(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	if cfg == nil || (cfg.APIKey == "" && cfg.Endpoint == "") {
		return nil, ErrNotConfigured
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderAzure, "":
		client, err := NewClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
