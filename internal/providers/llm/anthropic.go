package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/core"
)

const (
	anthropicVersion   = "2023-06-01"
	anthropicMaxTokens = 4096
)

type Anthropic struct {
	baseProvider
}

func NewAnthropic(apiKey, model string, timeout time.Duration) *Anthropic {
	return &Anthropic{
		baseProvider: newBaseProvider("https://api.anthropic.com", apiKey, model, timeout),
	}
}

func (a *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
}

func (a *Anthropic) Chat(ctx context.Context, history []core.Turn) (core.Turn, error) {
	payload := map[string]any{
		"model":      a.model,
		"max_tokens": anthropicMaxTokens,
		"messages":   history,
	}

	resp, err := a.doRequest(ctx, http.MethodPost, "/v1/messages", payload, a.headers())
	if err != nil {
		return core.Turn{}, err
	}
	defer resp.Body.Close()

	data, err := readOK(resp)
	if err != nil {
		return core.Turn{}, err
	}

	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return core.Turn{}, fmt.Errorf("decode: %w", err)
	}
	if len(result.Content) == 0 {
		return core.Turn{}, fmt.Errorf("empty content: %s", string(data))
	}

	var text strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return core.Turn{Role: core.RoleAssistant, Content: text.String()}, nil
}

func (a *Anthropic) Models(ctx context.Context) ([]core.Model, error) {
	var models []core.Model
	afterID := ""

	for {
		path := "/v1/models?limit=1000"
		if afterID != "" {
			path = fmt.Sprintf("%s&after_id=%s", path, url.QueryEscape(afterID))
		}

		resp, err := a.doRequest(ctx, http.MethodGet, path, nil, a.headers())
		if err != nil {
			return nil, err
		}
		data, err := readOK(resp)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}

		var page struct {
			Data []struct {
				ID          string `json:"id"`
				DisplayName string `json:"display_name"`
				Type        string `json:"type"`
			} `json:"data"`
			HasMore bool   `json:"has_more"`
			LastID  string `json:"last_id"`
		}
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		for _, m := range page.Data {
			if m.Type == "model" {
				models = append(models, core.Model{ID: m.ID, Name: m.DisplayName})
			}
		}

		if !page.HasMore {
			return models, nil
		}
		afterID = page.LastID
	}
}
