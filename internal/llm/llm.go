package llm

import (
	"os"
	"strings"

	"github.com/MarkSmith2151996/NAI-Workbench/internal/common"
	"github.com/MarkSmith2151996/NAI-Workbench/internal/llm/providers"
)

// Provider is re-exported so callers wire transforms without importing the
// providers package directly.
type Provider = providers.Provider

// NewProvider selects the transform backend. TRANSFORM_PROVIDER forces a
// choice when its credentials are present; otherwise the first backend with
// credentials wins, ending at the offline local provider.
func NewProvider() Provider {
	logger := common.Logger()
	switch choice := strings.ToLower(strings.TrimSpace(os.Getenv("TRANSFORM_PROVIDER"))); choice {
	case "openai":
		if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
			logger.Info("llm: OpenAI provider selected")
			return providers.NewOpenAIProvider(key)
		}
		logger.Warn("llm: TRANSFORM_PROVIDER=openai but OPENAI_API_KEY not set; using automatic selection")
	case "anthropic":
		if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
			logger.Info("llm: Anthropic provider selected")
			return providers.NewAnthropicProvider(key)
		}
		logger.Warn("llm: TRANSFORM_PROVIDER=anthropic but ANTHROPIC_API_KEY not set; using automatic selection")
	case "ollama":
		model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL"))
		if model == "" {
			model = "llama3.1"
		}
		provider, err := providers.NewOllamaProvider(model)
		if err == nil {
			logger.Info("llm: Ollama provider selected")
			return provider
		}
		logger.Warn("llm: Ollama provider unavailable; using automatic selection", "error", err)
	case "local":
		logger.Info("llm: local provider selected")
		return providers.NewLocalProvider()
	case "":
	default:
		logger.Warn("llm: unknown TRANSFORM_PROVIDER, using automatic selection", "value", choice)
	}
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		logger.Info("llm: OpenAI provider selected")
		return providers.NewOpenAIProvider(key)
	}
	if key := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); key != "" {
		logger.Info("llm: Anthropic provider selected")
		return providers.NewAnthropicProvider(key)
	}
	if model := strings.TrimSpace(os.Getenv("OLLAMA_MODEL")); model != "" {
		provider, err := providers.NewOllamaProvider(model)
		if err == nil {
			logger.Info("llm: Ollama provider selected")
			return provider
		}
		logger.Warn("llm: Ollama provider unavailable; falling back to local", "error", err)
	}
	logger.Warn("llm: no transform credentials found; falling back to local provider")
	return providers.NewLocalProvider()
}
