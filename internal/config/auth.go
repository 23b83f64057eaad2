package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/piichat/pkg/log"
)

// AuthConfig gates the web UI behind basic auth when both values are set.
type AuthConfig struct {
	Username string `env:"PII_SAFE_CHAT_USERNAME"`
	Password string `env:"PII_SAFE_CHAT_PASSWORD"`
}

func NewAuthConfig(ctx context.Context) *AuthConfig {
	c := &AuthConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Auth config")
	}
	return c
}

func (c *AuthConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}
