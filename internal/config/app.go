package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

const (
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
	ProviderCustom     = "custom"
)

type AppConfig struct {
	RuntimePath string `env:"PIICHAT_RUNTIME_PATH" envDefault:".piichat"`
	Profile     string `env:"PIICHAT_PROFILE" envDefault:"default"`
	CatalogPath string `env:"PIICHAT_CATALOG"`
	Persist     bool   `env:"PIICHAT_PERSIST" envDefault:"false"`

	// Web and Telegram sessions
	SessionTTL  time.Duration `env:"PIICHAT_SESSION_TTL" envDefault:"24h"`
	MaxSessions int           `env:"PIICHAT_MAX_SESSIONS" envDefault:"10000"`

	// Transport Flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`
	HTTPAddr       string `env:"PIICHAT_HTTP_ADDR" envDefault:":7860"`

	// Language model
	Provider string        `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string        `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"120s"`

	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`

	mu sync.RWMutex
}

func LoadAppConfig() (*AppConfig, error) {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		return nil, &core.ConfigurationError{Err: err}
	}
	if !filepath.IsAbs(c.RuntimePath) {
		home, _ := os.UserHomeDir()
		c.RuntimePath = filepath.Join(home, c.RuntimePath)
	}
	return c, nil
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c, err := LoadAppConfig()
	if err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

// Validate checks the settings needed before any input is accepted.
func (c *AppConfig) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderOpenRouter, ProviderOllama, ProviderCustom:
	default:
		return &core.ConfigurationError{Field: "LLM_PROVIDER", Err: fmt.Errorf("unknown provider %q", c.Provider)}
	}
	if strings.TrimSpace(c.Model) == "" {
		return &core.ConfigurationError{Field: "LLM_MODEL", Err: errors.New("must not be empty")}
	}
	if c.Timeout <= 0 {
		return &core.ConfigurationError{Field: "LLM_TIMEOUT", Err: errors.New("must be positive")}
	}
	if key := c.apiKeyEnv(); key != "" && c.getAPIKey() == "" {
		return &core.ConfigurationError{Field: key, Err: errors.New("API key is required")}
	}
	if c.Provider == ProviderCustom && c.CustomOpenAIBaseURL == "" {
		return &core.ConfigurationError{Field: "CUSTOM_OPENAI_BASE_URL", Err: errors.New("base URL is required")}
	}
	if c.EnableHTTP && c.HTTPAddr == "" {
		return &core.ConfigurationError{Field: "PIICHAT_HTTP_ADDR", Err: errors.New("must not be empty")}
	}
	if c.SessionTTL < 0 {
		return &core.ConfigurationError{Field: "PIICHAT_SESSION_TTL", Err: errors.New("must not be negative")}
	}
	if c.MaxSessions < 0 {
		return &core.ConfigurationError{Field: "PIICHAT_MAX_SESSIONS", Err: errors.New("must not be negative")}
	}
	return nil
}

// apiKeyEnv names the variable holding the credential of providers that
// cannot work without one.
func (c *AppConfig) apiKeyEnv() string {
	switch c.Provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	}
	return ""
}

func (c *AppConfig) GetProvider() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Provider
}

func (c *AppConfig) GetModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Model
}

// SetModel switches the model and writes it to the runtime .env when one exists.
func (c *AppConfig) SetModel(model string) error {
	c.mu.Lock()
	c.Model = model
	c.mu.Unlock()

	envPath := c.GetEnvPath()
	values, err := godotenv.Read(envPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", envPath, err)
	}
	values["LLM_MODEL"] = model
	return godotenv.Write(values, envPath)
}

func (c *AppConfig) GetAPIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getAPIKey()
}

func (c *AppConfig) getAPIKey() string {
	switch c.Provider {
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	case ProviderOllama:
		return c.OllamaAPIKey
	case ProviderCustom:
		return c.CustomOpenAIAPIKey
	}
	return ""
}

func (c *AppConfig) GetBaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch c.Provider {
	case ProviderOllama:
		return c.OllamaBaseURL
	case ProviderCustom:
		return c.CustomOpenAIBaseURL
	}
	return ""
}

func (c *AppConfig) GetTimeout() time.Duration {
	return c.Timeout
}

func (c *AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c *AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

// GetCatalogPath returns PIICHAT_CATALOG, or the catalog in the runtime
// directory when one was installed there. Empty means the built-in catalog.
func (c *AppConfig) GetCatalogPath() string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	path := filepath.Join(c.RuntimePath, CatalogFileName)
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "piichat.db")
}
