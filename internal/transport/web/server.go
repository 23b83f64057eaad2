// Package web serves the browser chat UI and its JSON and WebSocket API.
package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sandevgo/piichat/internal/config"
	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/internal/metrics"
	"github.com/sandevgo/piichat/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// ChatService is the slice of the orchestrator the web layer drives.
type ChatService interface {
	HandleUserMessage(ctx context.Context, sessionID, raw string) ([]core.Exchange, error)
	Reset(ctx context.Context, sessionID string) []core.Exchange
	Transcript(ctx context.Context, sessionID string) []core.Exchange
}

type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
	Entities() []core.EntityKind
}

type Server struct {
	addr    string
	echo    *echo.Echo
	handler *Handler
}

func NewServer(
	ctx context.Context,
	addr string,
	chat ChatService,
	redactor Redactor,
	auth *config.AuthConfig,
	m *metrics.Metrics,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(withLogger(ctx))
	e.Use(requestLogger(ctx))
	e.Use(recordMetrics(m))
	e.Use(middleware.BodyLimit("1M"))
	if auth != nil && auth.Enabled() {
		e.Use(basicAuth(auth))
	}

	h := NewHandler(chat, redactor)
	h.RegisterRoutes(e)
	e.GET("/healthz", h.Health)
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}

	return &Server{
		addr:    addr,
		echo:    e,
		handler: h,
	}
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting web server")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	// ctx is already cancelled when services are stopped
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// ServeHTTP lets tests drive the router without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// withLogger makes the process logger reachable through the request context.
func withLogger(ctx context.Context) echo.MiddlewareFunc {
	logger := log.FromCtx(ctx)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))
			return next(c)
		}
	}
}

// requestLogger logs method, route and status. Bodies are never logged as
// they carry raw user text.
func requestLogger(ctx context.Context) echo.MiddlewareFunc {
	logger := log.FromCtx(ctx)
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := logger.Debug()
			if v.Error != nil {
				event = logger.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("path", v.URIPath).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("http request")
			return nil
		},
	})
}

func recordMetrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)
			if err != nil {
				// the global handler skips responses that are already committed
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, route, strconv.Itoa(c.Response().Status), time.Since(started))
			return err
		}
	}
}
