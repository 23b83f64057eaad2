package installer

import (
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/pkg/env"
)

// InstallState accumulates the answers of the wizard in the same structs the
// application later parses from the environment.
type InstallState struct {
	App      *config.AppConfig
	Detector *config.DetectorConfig
	Telegram *config.TelegramConfig
}

func NewInstallState() *InstallState {
	return &InstallState{
		App: &config.AppConfig{
			Profile:    "default",
			EnableHTTP: true,
			HTTPAddr:   ":7860",
			Provider:   config.ProviderOpenAI,
			Timeout:    120 * time.Second,
		},
		Detector: &config.DetectorConfig{
			Language:   "en",
			Threshold:  0.4,
			NERURL:     "http://localhost:11434",
			NERModel:   "qwen2.5:3b",
			NERTimeout: 30 * time.Second,
		},
		Telegram: &config.TelegramConfig{},
	}
}

// Render produces the .env file content. Zero values are left out so the
// application defaults apply.
func (s *InstallState) Render() (string, error) {
	parts := []any{s.App, s.Detector}
	if s.App.EnableTelegram {
		parts = append(parts, s.Telegram)
	}

	var b strings.Builder
	for _, p := range parts {
		content, err := env.MarshalEnv(p)
		if err != nil {
			return "", err
		}
		b.WriteString(content)
	}
	return b.String(), nil
}
