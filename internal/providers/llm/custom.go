package llm

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/core"
)

// CustomOpenAI talks to any server exposing the OpenAI chat completions API.
type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(baseURL, apiKey, model string, timeout time.Duration) *CustomOpenAI {
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"),
			APIKey:     apiKey,
			Model:      model,
			Timeout:    timeout,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}

func (c *CustomOpenAI) Models(ctx context.Context) ([]core.Model, error) {
	return c.listModels(ctx)
}
