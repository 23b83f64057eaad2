package web

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/log"
)

const (
	wsTypeSubmit = "submit"
	wsTypeReset  = "reset"

	wsMaxMessageSize = 64 * 1024
	wsWriteTimeout   = 10 * time.Second
	wsPongTimeout    = 60 * time.Second
)

type wsRequest struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wsResponse struct {
	Transcript []core.Exchange `json:"transcript"`
	Error      string          `json:"error,omitempty"`
}

// wsConn serialises writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsConn) write(messageType int, data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteMessage(messageType, data)
}

func (w *wsConn) writeJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, data)
}

// WebSocket runs one chat session over a socket. Requests on a connection
// are handled in order; the orchestrator serialises them per session anyway.
func (h *Handler) WebSocket(c echo.Context) error {
	// The upgrade response is written from this header alone, so the
	// session cookie has to travel in it.
	header := http.Header{}
	if cookies := c.Response().Header().Values(echo.HeaderSetCookie); len(cookies) > 0 {
		header[echo.HeaderSetCookie] = cookies
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), header)
	if err != nil {
		// the upgrader has already replied
		logError(c, err, "failed to upgrade websocket")
		return nil
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	conn := &wsConn{conn: ws}
	sid := sessionID(c)
	logger := log.FromCtx(ctx).With().Str("session", sid).Logger()

	ws.SetReadLimit(wsMaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
	})

	go h.keepAlive(ctx, conn)

	if err := conn.writeJSON(wsResponse{Transcript: nonNil(h.chat.Transcript(ctx, sid))}); err != nil {
		return nil
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return nil
		}

		resp := h.handleWS(ctx, sid, data)
		// Pongs that arrived during a slow exchange are still unread.
		_ = ws.SetReadDeadline(time.Now().Add(h.pongTimeout))
		if err := conn.writeJSON(resp); err != nil {
			logger.Warn().Err(err).Msg("failed to write websocket response")
			return nil
		}
	}
}

func (h *Handler) handleWS(ctx context.Context, sid string, data []byte) wsResponse {
	var req wsRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsResponse{Transcript: nonNil(h.chat.Transcript(ctx, sid)), Error: "invalid JSON message"}
	}

	switch req.Type {
	case wsTypeSubmit:
		transcript, err := h.chat.HandleUserMessage(ctx, sid, req.Text)
		if err != nil {
			return wsResponse{Transcript: nonNil(h.chat.Transcript(ctx, sid)), Error: publicMessage(err)}
		}
		return wsResponse{Transcript: nonNil(transcript)}
	case wsTypeReset:
		return wsResponse{Transcript: nonNil(h.chat.Reset(ctx, sid))}
	default:
		return wsResponse{Transcript: nonNil(h.chat.Transcript(ctx, sid)), Error: "unknown message type " + req.Type}
	}
}

func (h *Handler) keepAlive(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(h.pongTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
