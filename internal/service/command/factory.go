package command

import (
	"github.com/sandevgo/piichat/internal/core"
)

func NewCommands(
	cfg core.ProviderConfig,
	state core.GlobalState,
	chat resetter,
	redactor entityLister,
) []core.Command {
	return []core.Command{
		NewNewCommand(chat),
		NewModelCommand(cfg, state),
		NewEntitiesCommand(redactor),
	}
}
