package main

import (
	"github.com/spf13/cobra"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/pkg/log"
	"github.com/sandevgo/piichat/pkg/srv"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI and the Telegram bot",
	Long:  `Starts every frontend enabled in the configuration and serves until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// logger setup
		var flushLog func()
		ctx, flushLog = setupLogger(ctx)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Msg("starting piichat")

		if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
			return err
		}

		app, err := NewApp(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize")
			return err
		}

		transports, err := NewTransports(ctx, app)
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize transports")
			return err
		}
		services := append(append(transports, app.Background...), app.Cleanup...)

		// Start services
		srv.StartServices(ctx, services)

		// Wait for shutdown signal
		srv.ShutdownServices(ctx, services)
		logger.Info().Msg("piichat has been shut down gracefully")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
