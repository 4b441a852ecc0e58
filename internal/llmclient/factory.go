// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hverdane/ecoestate/api/schemas"
	"github.com/hverdane/ecoestate/internal/config"
)

// NewClient is a factory function that creates an LLMClient for one model
// configuration.
func NewClient(cfg config.LLMModelConfig, embeddingModel string, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(cfg, logger)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, embeddingModel, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: '%s'. Supported: [%s, %s]",
			cfg.Provider, config.ProviderGemini, config.ProviderOpenAI)
	}
}

// NewEmbeddingClient returns an embedding-capable client from the router
// config. Embeddings are served by the OpenAI API, so the first configured
// OpenAI model entry is used.
func NewEmbeddingClient(cfg config.LLMRouterConfig, logger *zap.Logger) (schemas.EmbeddingClient, error) {
	for _, mc := range cfg.Models {
		if mc.Provider == config.ProviderOpenAI {
			return NewOpenAIClient(mc, cfg.EmbeddingModel, logger)
		}
	}
	return nil, fmt.Errorf("no openai model configured: embeddings require an entry with provider %q in llm.models", config.ProviderOpenAI)
}

// NewRouterFromConfig resolves the configured fast and powerful models and
// wires them into a router.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (*Router, error) {
	fastCfg, ok := cfg.Models[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry for default fast model %q", cfg.DefaultFastModel)
	}
	powerfulCfg, ok := cfg.Models[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry for default powerful model %q", cfg.DefaultPowerfulModel)
	}

	fastClient, err := NewClient(fastCfg, cfg.EmbeddingModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build fast-tier client: %w", err)
	}
	powerfulClient, err := NewClient(powerfulCfg, cfg.EmbeddingModel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build powerful-tier client: %w", err)
	}

	return NewRouter(logger, fastClient, powerfulClient)
}
