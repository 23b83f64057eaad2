package core

import "context"

// CmdRouter dispatches slash commands typed into the chat frontends. Input
// that does not name a registered command is left for the orchestrator.
type CmdRouter interface {
	IsCommand(input string) bool
	Execute(ctx context.Context, sessionID, input string) (string, bool)
	ListCommands() []Command
}

// Command is a slash command such as /new or /entities. Its output is
// Markdown and never echoes raw user input.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, sessionID string, args []string) (string, error)
}
