package command

import (
	"context"

	"github.com/sandevgo/piichat/internal/core"
)

type resetter interface {
	Reset(ctx context.Context, sessionID string) []core.Exchange
}

type NewCommand struct {
	chat      resetter
	formatter *ResponseFormatter
}

func NewNewCommand(chat resetter) *NewCommand {
	return &NewCommand{
		chat:      chat,
		formatter: NewResponseFormatter(),
	}
}

func (c *NewCommand) Name() string {
	return "new"
}

func (c *NewCommand) Description() string {
	return "Start a new conversation"
}

func (c *NewCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	c.chat.Reset(ctx, sessionID)
	return c.formatter.Success("Conversation cleared"), nil
}
