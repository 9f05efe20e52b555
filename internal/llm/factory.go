package llm

import (
	"fmt"
	"time"

	"compass/internal/config"
	"compass/internal/logging"
)

// New creates a Client from configuration. The provider string selects
// the implementation; empty base URL and model fall back to provider
// defaults.
func New(cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	switch cfg.Provider {
	case "huggingface":
		hc := DefaultHFConfig(cfg.APIKey)
		hc.Timeout = timeout
		if cfg.BaseURL != "" {
			hc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			hc.Model = cfg.Model
		}
		logging.API("model client: huggingface (%s)", hc.Model)
		return NewHFClientWithConfig(hc), nil

	case "openai":
		oc := DefaultOpenAIConfig(cfg.APIKey)
		oc.Timeout = timeout
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		logging.API("model client: openai-compatible (%s)", oc.Model)
		return NewOpenAIClientWithConfig(oc), nil

	case "gemini":
		gc := DefaultGeminiConfig(cfg.APIKey)
		gc.Timeout = timeout
		if cfg.BaseURL != "" {
			gc.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		logging.API("model client: gemini (%s)", gc.Model)
		return NewGeminiClientWithConfig(gc), nil

	default:
		return nil, fmt.Errorf("unknown model provider: %q (valid: %v)", cfg.Provider, config.ValidProviders)
	}
}
