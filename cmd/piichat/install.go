package main

import (
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/service/installer"
	"github.com/sandevgo/piichat/pkg/log"
)

var installCmd = &cobra.Command{
	Use:           "install",
	Short:         "Configure the provider, frontends and detector",
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting installation process")

		// run wizard (includes save step)
		runtimePath := config.GetRuntimePath()
		if _, err := installer.RunWizard(runtimePath); err != nil {
			return err
		}

		envPath := filepath.Join(runtimePath, ".env")
		if _, err := godotenv.Read(envPath); err != nil {
			logger.Warn().Err(err).Str("path", envPath).Msg("failed to read the new .env file")
		}

		logger.Info().Msgf("initialized runtime directory at: %s", runtimePath)
		logger.Info().Msg("Installation complete! You can now run 'piichat serve' or 'piichat chat'.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
