package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/service/chat"
	"github.com/sandevgo/piichat/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type ChatService interface {
	Submit(ctx context.Context, sessionID, raw string) (chat.Reply, error)
}

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	chat    ChatService
	router  core.CmdRouter
	sender  *sender
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	chat ChatService,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:     b,
		cfg:     cfg,
		chat:    chat,
		router:  router,
		sender:  newSender(b),
		ownerID: cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender() == nil || c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	if err := b.setCommands(); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to register bot commands")
	}
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) setCommands() error {
	var cmds []tele.Command
	for _, c := range b.router.ListCommands() {
		cmds = append(cmds, tele.Command{Text: c.Name(), Description: c.Description()})
	}
	return b.bot.SetCommands(cmds)
}

func sessionFor(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	sessionID := sessionFor(c.Chat().ID)

	if out, ok := b.router.Execute(ctx, sessionID, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Recipient(), out, false)
	}

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	reply, err := b.chat.Submit(ctx, sessionID, c.Text())
	if err != nil {
		logger.Error().Err(err).Str("session", sessionID).Msg("message not delivered")
		return c.Send(userError(err))
	}

	if reply.Redacted != c.Text() {
		notice := "🔒 <b>Sent as:</b>\n<code>" + html.EscapeString(reply.Redacted) + "</code>"
		if err := c.Send(notice, tele.ModeHTML, tele.Silent); err != nil {
			logger.Error().Err(err).Msg("failed to send redaction notice")
		}
	}

	return b.sender.sendMarkdown(ctx, c.Recipient(), reply.Assistant, false)
}

func userError(err error) string {
	var (
		detErr *core.DetectionError
		trErr  *core.TransportError
	)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return "⚠️ Message is empty."
	case errors.As(err, &detErr):
		return "⚠️ PII detection is unavailable, your message was not sent."
	case errors.As(err, &trErr):
		return "⚠️ The language model did not answer, please try again."
	}
	return "⚠️ " + strings.TrimSpace(err.Error())
}
