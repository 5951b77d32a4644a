package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/config"
)

// NewClient creates the LLM client selected by configuration.
// The client is constructed once at process start and shared by all runs;
// there is no lazily-initialized global.
func NewClient(cfg *config.LLMConfig, logger *zap.Logger) (Client, error) {
	clientCfg := &Config{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(clientCfg, logger)
	case "anthropic":
		return NewAnthropicClient(clientCfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
