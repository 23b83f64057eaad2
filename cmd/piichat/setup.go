package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/metrics"
	"github.com/sandevgo/piichat/internal/providers/llm"
	"github.com/sandevgo/piichat/internal/providers/pii"
	"github.com/sandevgo/piichat/internal/service/chat"
	"github.com/sandevgo/piichat/internal/service/command"
	"github.com/sandevgo/piichat/internal/service/conversation"
	"github.com/sandevgo/piichat/internal/service/redactor"
	"github.com/sandevgo/piichat/internal/service/state"
	"github.com/sandevgo/piichat/internal/storage/sqlite"
	"github.com/sandevgo/piichat/internal/transport/telegram"
	"github.com/sandevgo/piichat/internal/transport/web"
	"github.com/sandevgo/piichat/pkg/log"
	"github.com/sandevgo/piichat/pkg/retry"
	"github.com/sandevgo/piichat/pkg/srv"
)

// App holds the components shared by every frontend.
type App struct {
	Config   *config.AppConfig
	Redactor *redactor.Redactor
	Chat     *chat.Service
	Router   core.CmdRouter
	Metrics  *metrics.Metrics

	// Background runs alongside the frontends, Cleanup releases storage
	// once they are gone.
	Background []srv.Service
	Cleanup    []srv.Service
}

// NewApp loads and validates the configuration and wires the pipeline.
// Nothing is accepted from a frontend until it returns without error.
func NewApp(ctx context.Context) (*App, error) {
	logger := log.FromCtx(ctx)

	// 1. Configuration
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, err
	}
	if err := appCfg.Validate(); err != nil {
		return nil, err
	}

	catalog, err := config.LoadCatalog(appCfg.GetCatalogPath())
	if err != nil {
		return nil, err
	}
	preamble, err := catalog.Preamble(appCfg.Profile)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	// 2. Redaction
	red, err := NewRedactor(ctx, m)
	if err != nil {
		return nil, err
	}

	// 3. Language model
	provider, err := llm.NewDynamicProvider(ctx, appCfg, catalog)
	if err != nil {
		return nil, err
	}
	globalState := state.NewGlobalState(provider)

	// 4. Storage
	var (
		repo    core.TurnsRepository
		cleanup []srv.Service
	)
	if appCfg.Persist {
		db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		repo = sqlite.NewTurns(db)
		cleanup = append(cleanup, srv.NewCleanup(db.Close))
		logger.Info().Str("path", appCfg.GetDatabasePath()).Msg("persisting redacted turns")
	}

	// 5. Orchestrator and commands
	sessions := conversation.NewSessions(preamble, appCfg.SessionTTL, appCfg.MaxSessions)
	chatService := chat.NewService(red, provider, sessions, repo, m)
	router := command.New(command.NewCommands(appCfg, globalState, chatService, red))

	return &App{
		Config:   appCfg,
		Redactor: red,
		Chat:     chatService,
		Router:   router,
		Metrics:  m,
		Background: []srv.Service{
			srv.NewBackground(func(ctx context.Context) {
				sessions.Run(ctx, sweepInterval(appCfg.SessionTTL))
			}),
		},
		Cleanup: cleanup,
	}, nil
}

// sweepInterval checks for idle sessions a few times per TTL, at most once
// a minute.
func sweepInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return time.Hour
	}
	return max(min(ttl/4, time.Minute), time.Second)
}

// Close runs the cleanup services without waiting for ctx to end.
func (a *App) Close(ctx context.Context) {
	for _, s := range a.Cleanup {
		if err := s.Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", s)
		}
	}
}

// NewRedactor builds the detector and redactor from the environment. When
// the Ollama NER backend is selected it waits for it to come up first.
func NewRedactor(ctx context.Context, m *metrics.Metrics) (*redactor.Redactor, error) {
	detCfg, err := config.LoadDetectorConfig()
	if err != nil {
		return nil, err
	}
	if err := detCfg.Validate(); err != nil {
		return nil, err
	}
	kinds, err := detCfg.EntityKinds()
	if err != nil {
		return nil, err
	}

	var extra []pii.Recognizer
	if detCfg.NER == config.NEROllama {
		ner := pii.NewOllamaRecognizer(detCfg.NERURL, detCfg.NERModel, detCfg.NERTimeout)
		if err := ner.WaitReady(ctx, retry.NewDefaultRetrier()); err != nil {
			return nil, &core.ConfigurationError{Field: "PIICHAT_NER_URL", Err: err}
		}
		extra = append(extra, ner)
	}

	detector := pii.NewDefaultDetector(extra...)
	log.FromCtx(ctx).Info().
		Str("recognizers", detector.Recognizers()).
		Float64("threshold", detCfg.Threshold).
		Msg("detector ready")

	return redactor.New(detector, redactor.Config{
		Entities:  kinds,
		Language:  detCfg.Language,
		Threshold: detCfg.Threshold,
	}, m), nil
}

// NewTransports returns the network frontends enabled in the configuration.
func NewTransports(ctx context.Context, app *App) ([]srv.Service, error) {
	var services []srv.Service

	if app.Config.EnableHTTP {
		services = append(services, web.NewServer(
			ctx,
			app.Config.HTTPAddr,
			app.Chat,
			app.Redactor,
			config.NewAuthConfig(ctx),
			app.Metrics,
		))
	}

	if app.Config.EnableTelegram {
		tgCfg, err := config.LoadTelegramConfig()
		if err != nil {
			return nil, err
		}
		bot, err := telegram.NewBot(ctx, tgCfg, app.Chat, app.Router)
		if err != nil {
			return nil, err
		}
		services = append(services, bot)
	}

	if len(services) == 0 {
		return nil, &core.ConfigurationError{Field: "ENABLE_HTTP", Err: fmt.Errorf("no frontend is enabled")}
	}
	return services, nil
}

// initEnv loads <runtime>/.env and then ./.env. Variables already set in
// the environment win.
func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)

	for _, envFile := range []string{filepath.Join(runtimePath, ".env"), ".env"} {
		if _, err := os.Stat(envFile); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}

		if err := godotenv.Load(envFile); err != nil {
			logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
			return err
		}
		logger.Debug().Str("path", envFile).Msg("loaded .env file")
	}
	return nil
}
