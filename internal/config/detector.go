package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

const NEROllama = "ollama"

type DetectorConfig struct {
	Language  string  `env:"PIICHAT_LANGUAGE" envDefault:"en"`
	Threshold float64 `env:"PIICHAT_SCORE_THRESHOLD" envDefault:"0.4"`
	// Entities is a comma separated subset of kinds; empty selects all.
	Entities string `env:"PIICHAT_ENTITIES"`

	NER        string        `env:"PIICHAT_NER"`
	NERURL     string        `env:"PIICHAT_NER_URL" envDefault:"http://localhost:11434"`
	NERModel   string        `env:"PIICHAT_NER_MODEL" envDefault:"qwen2.5:3b"`
	NERTimeout time.Duration `env:"PIICHAT_NER_TIMEOUT" envDefault:"30s"`
}

func LoadDetectorConfig() (*DetectorConfig, error) {
	c := &DetectorConfig{}
	if err := env.Parse(c); err != nil {
		return nil, &core.ConfigurationError{Err: err}
	}
	return c, nil
}

func NewDetectorConfig(ctx context.Context) *DetectorConfig {
	c, err := LoadDetectorConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Detector config")
	}
	return c
}

func (c *DetectorConfig) EntityKinds() ([]core.EntityKind, error) {
	kinds, err := core.ParseEntityKinds(c.Entities)
	if err != nil {
		return nil, &core.ConfigurationError{Field: "PIICHAT_ENTITIES", Err: err}
	}
	return kinds, nil
}

func (c *DetectorConfig) Validate() error {
	if c.Language != "en" {
		return &core.ConfigurationError{Field: "PIICHAT_LANGUAGE", Err: fmt.Errorf("unsupported language %q", c.Language)}
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return &core.ConfigurationError{Field: "PIICHAT_SCORE_THRESHOLD", Err: fmt.Errorf("%v is outside [0, 1]", c.Threshold)}
	}
	if _, err := c.EntityKinds(); err != nil {
		return err
	}
	switch c.NER {
	case "":
	case NEROllama:
		if c.NERURL == "" || c.NERModel == "" {
			return &core.ConfigurationError{Field: "PIICHAT_NER_URL", Err: fmt.Errorf("url and model are required for ollama NER")}
		}
	default:
		return &core.ConfigurationError{Field: "PIICHAT_NER", Err: fmt.Errorf("unknown NER backend %q", c.NER)}
	}
	return nil
}
