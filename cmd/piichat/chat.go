package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/transport/tui"
)

const terminalSession = "terminal"

var chatCmd = &cobra.Command{
	Use:          "chat",
	Short:        "Chat in the terminal",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// The screen belongs to the TUI, logs go to a file.
		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0o700); err != nil {
			return err
		}
		logFile, err := os.OpenFile(filepath.Join(runtimePath, "piichat.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()

		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, logFile)
		defer flushLog()

		if err := initEnv(ctx, runtimePath); err != nil {
			return err
		}

		app, err := NewApp(ctx)
		if err != nil {
			return err
		}
		defer app.Close(ctx)

		return tui.Run(ctx, app.Chat, app.Router, terminalSession)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
