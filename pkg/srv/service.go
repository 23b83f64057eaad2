// Package srv runs the long-lived parts of piichat (the web server, the
// Telegram bot, the session sweeper) side by side and stops them together.
package srv

import (
	"context"

	"github.com/sandevgo/piichat/pkg/log"
)

// Service is anything serve keeps running until the process is signalled.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// StartServices starts each service in its own goroutine. A service that
// fails to start takes the process down, since a frontend that is silently
// missing is worse than none.
func StartServices(ctx context.Context, services []Service) {
	logger := log.FromCtx(ctx)
	for _, service := range services {
		go func(service Service) {
			if err := service.Start(ctx); err != nil {
				logger.Fatal().Err(err).Msgf("%T failed to start", service)
			}
		}(service)
	}
}

// ShutdownServices blocks until ctx is done, then shuts the services down in
// the order given.
func ShutdownServices(ctx context.Context, services []Service) {
	<-ctx.Done()
	for _, service := range services {
		if err := service.Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msgf("%T failed to shutdown", service)
		}
	}
}
