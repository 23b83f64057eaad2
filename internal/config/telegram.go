package config

import (
	"context"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

type TelegramConfig struct {
	Token   string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	OwnerID int64  `env:"TELEGRAM_OWNER_ID,required"`
}

func LoadTelegramConfig() (*TelegramConfig, error) {
	c := &TelegramConfig{}
	if err := env.Parse(c); err != nil {
		return nil, &core.ConfigurationError{Field: "TELEGRAM", Err: err}
	}
	return c, nil
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	c, err := LoadTelegramConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Telegram config")
	}
	return c
}
