package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/piichat/internal/core"
)

type ModelCommand struct {
	cfg       core.ProviderConfig
	state     core.GlobalState
	formatter *ResponseFormatter
}

func NewModelCommand(
	cfg core.ProviderConfig,
	state core.GlobalState,
) *ModelCommand {
	return &ModelCommand{
		cfg:       cfg,
		state:     state,
		formatter: NewResponseFormatter(),
	}
}

func (c *ModelCommand) Name() string {
	return "model"
}

func (c *ModelCommand) Description() string {
	return "Show or change current model"
}

func (c *ModelCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	if len(args) == 0 {
		return c.formatter.Combine(
			c.formatter.Info("Current Model"),
			c.formatter.Label("Provider", c.cfg.GetProvider()),
			c.formatter.Label("Model", c.state.CurrentModel()),
			c.formatter.Usage("/model [model]"),
			c.formatter.Examples([]string{
				"/model gpt-4o-mini",
				"/model claude-3-5-haiku-latest",
				"/model meta-llama/llama-3.1-8b-instruct",
			}),
		), nil
	}

	if err := c.state.ChangeModel(ctx, args[0]); err != nil {
		return "", fmt.Errorf("failed to set model: %w", err)
	}

	return c.formatter.Success(fmt.Sprintf("Model changed to: `%s/%s`", c.cfg.GetProvider(), c.state.CurrentModel())), nil
}
