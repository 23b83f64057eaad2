package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/transport/mcp"
)

var mcpCmd = &cobra.Command{
	Use:          "mcp",
	Short:        "Serve the redactor as MCP tools over stdio",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// stdout carries the protocol
		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		red, err := NewRedactor(ctx, nil)
		if err != nil {
			return err
		}

		return mcp.NewServer(red, cmd.InOrStdin(), cmd.OutOrStdout()).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
