package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandevgo/piichat/internal/config"
)

var redactCmd = &cobra.Command{
	Use:          "redact [text]",
	Short:        "Print text with personal data replaced by placeholders",
	Long:         `Redacts the arguments, or standard input when none are given. Nothing is sent to the language model.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLoggerTo(ctx, os.Stderr)
		defer flushLog()

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}

		red, err := NewRedactor(ctx, nil)
		if err != nil {
			return err
		}

		redacted, err := red.Redact(ctx, text)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(cmd.OutOrStdout(), redacted)
		if err == nil && !strings.HasSuffix(redacted, "\n") {
			_, err = fmt.Fprintln(cmd.OutOrStdout())
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(redactCmd)
}
