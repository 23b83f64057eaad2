package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

// NewProvider creates the appropriate AIProvider based on configuration.
func NewProvider(ctx context.Context, cfg core.ProviderConfig) (core.AIProvider, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.GetProvider()).
		Str("model", cfg.GetModel()).
		Msg("starting llm provider")

	model, key, timeout := cfg.GetModel(), cfg.GetAPIKey(), cfg.GetTimeout()

	switch cfg.GetProvider() {
	case "openai":
		return NewOpenAI(key, model, timeout), nil
	case "anthropic":
		return NewAnthropic(key, model, timeout), nil
	case "openrouter":
		return NewOpenRouter(key, model, timeout), nil
	case "ollama":
		return NewOllama(cfg.GetBaseURL(), key, model, timeout), nil
	case "custom":
		return NewCustomOpenAI(cfg.GetBaseURL(), key, model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.GetProvider())
	}
}
