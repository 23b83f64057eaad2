package web

import (
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

//go:embed static
var staticFS embed.FS

type Handler struct {
	chat        ChatService
	redactor    Redactor
	upgrader    websocket.Upgrader
	pongTimeout time.Duration
}

func NewHandler(chat ChatService, redactor Redactor) *Handler {
	return &Handler{
		chat:     chat,
		redactor: redactor,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pongTimeout: wsPongTimeout,
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

type redactRequest struct {
	Text string `json:"text"`
}

type transcriptResponse struct {
	Transcript []core.Exchange `json:"transcript"`
}

type redactResponse struct {
	Text string `json:"text"`
}

type entitiesResponse struct {
	Entities []core.EntityKind `json:"entities"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index, sessionCookie())

	api := e.Group("/api", sessionCookie())
	api.POST("/chat", h.Chat)
	api.POST("/reset", h.Reset)
	api.GET("/transcript", h.Transcript)
	api.POST("/redact", h.Redact)
	api.GET("/entities", h.Entities)

	e.GET("/ws", h.WebSocket, sessionCookie())
}

func (h *Handler) Index(c echo.Context) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": core.AppVersion,
	})
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	ctx := c.Request().Context()
	transcript, err := h.chat.HandleUserMessage(ctx, sessionID(c), req.Message)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: publicMessage(err)})
	}
	return c.JSON(http.StatusOK, transcriptResponse{Transcript: nonNil(transcript)})
}

func (h *Handler) Reset(c echo.Context) error {
	transcript := h.chat.Reset(c.Request().Context(), sessionID(c))
	return c.JSON(http.StatusOK, transcriptResponse{Transcript: nonNil(transcript)})
}

func (h *Handler) Transcript(c echo.Context) error {
	transcript := h.chat.Transcript(c.Request().Context(), sessionID(c))
	return c.JSON(http.StatusOK, transcriptResponse{Transcript: nonNil(transcript)})
}

// Redact previews what would be sent for a text without calling the model.
func (h *Handler) Redact(c echo.Context) error {
	var req redactRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	text, err := h.redactor.Redact(c.Request().Context(), req.Text)
	if err != nil {
		return c.JSON(statusFor(err), errorResponse{Error: publicMessage(err)})
	}
	return c.JSON(http.StatusOK, redactResponse{Text: text})
}

func (h *Handler) Entities(c echo.Context) error {
	return c.JSON(http.StatusOK, entitiesResponse{Entities: h.redactor.Entities()})
}

func statusFor(err error) int {
	var (
		detErr *core.DetectionError
		trErr  *core.TransportError
	)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.As(err, &detErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &trErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// publicMessage is the error text shown in the browser. Provider bodies can
// echo the prompt back, so transport details stay in the server log.
func publicMessage(err error) string {
	var (
		detErr *core.DetectionError
		trErr  *core.TransportError
	)
	switch {
	case errors.Is(err, core.ErrEmptyMessage):
		return err.Error()
	case errors.As(err, &detErr):
		return "PII detection is unavailable, the message was not sent"
	case errors.As(err, &trErr):
		return "the language model request failed, please try again"
	}
	return "internal error"
}

func nonNil(t []core.Exchange) []core.Exchange {
	if t == nil {
		return []core.Exchange{}
	}
	return t
}

func logError(c echo.Context, err error, msg string) {
	log.FromCtx(c.Request().Context()).Error().Err(err).Str("session", sessionID(c)).Msg(msg)
}
