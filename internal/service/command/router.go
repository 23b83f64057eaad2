package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/piichat/internal/core"
)

type Router struct {
	commands map[string]core.Command
}

func New(commands []core.Command) *Router {
	c := &Router{
		commands: make(map[string]core.Command),
	}

	for _, cmd := range commands {
		c.commands[cmd.Name()] = cmd
	}
	return c
}

// IsCommand reports whether input starts with a registered command name.
// Other text, a leading slash included, is a chat message.
func (c *Router) IsCommand(input string) bool {
	_, _, ok := c.lookup(input)
	return ok
}

// Execute runs the command named by input. It reports false, leaving the
// text to the caller, when input does not name a registered command.
func (c *Router) Execute(ctx context.Context, sessionID, input string) (string, bool) {
	cmd, args, ok := c.lookup(input)
	if !ok {
		return "", false
	}

	result, err := cmd.Execute(ctx, sessionID, args)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), true
	}
	return result, true
}

func (c *Router) lookup(input string) (core.Command, []string, bool) {
	if !strings.HasPrefix(input, "/") {
		return nil, nil, false
	}

	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil, nil, false
	}
	// Telegram appends the bot name in groups: /new@piichat_bot
	name, _, _ := strings.Cut(strings.TrimPrefix(parts[0], "/"), "@")

	cmd, ok := c.commands[name]
	if !ok {
		return nil, nil, false
	}
	return cmd, parts[1:], true
}

func (c *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}
