package command

import (
	"context"
	"fmt"

	"github.com/sandevgo/piichat/internal/core"
)

type entityLister interface {
	Entities() []core.EntityKind
}

type EntitiesCommand struct {
	redactor  entityLister
	formatter *ResponseFormatter
}

func NewEntitiesCommand(redactor entityLister) *EntitiesCommand {
	return &EntitiesCommand{
		redactor:  redactor,
		formatter: NewResponseFormatter(),
	}
}

func (c *EntitiesCommand) Name() string {
	return "entities"
}

func (c *EntitiesCommand) Description() string {
	return "List the kinds of PII that are redacted"
}

func (c *EntitiesCommand) Execute(ctx context.Context, sessionID string, args []string) (string, error) {
	kinds := c.redactor.Entities()
	items := make([]string, len(kinds))
	for i, k := range kinds {
		items[i] = fmt.Sprintf("`%s`", k.Placeholder())
	}

	return c.formatter.Combine(
		c.formatter.Info("Redacted entities"),
		c.formatter.List(items),
		c.formatter.Tip("matches are replaced before anything leaves this machine"),
	), nil
}
