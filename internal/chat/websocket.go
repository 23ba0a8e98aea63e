package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// WebSocketHandler serves the chat widget over a persistent socket. The
// widget sends user turns and receives deltas on the same connection, so it
// never needs to juggle a POST plus an event stream.
type WebSocketHandler struct {
	svc *Service
}

// NewWebSocketHandler creates a new chat WebSocket handler.
func NewWebSocketHandler(svc *Service) *WebSocketHandler {
	return &WebSocketHandler{svc: svc}
}

// wsInbound is a frame from the widget.
type wsInbound struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// wsOutbound is a frame to the widget.
type wsOutbound struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	Error    string    `json:"error,omitempty"`
	Messages []Message `json:"messages,omitempty"`
}

// ServeHTTP implements http.Handler for the WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	convID := conversationIDForUpgrade(w, r)
	slog.Info("Chat socket connection", "conversation_id", convID, "ip", r.RemoteAddr)

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept chat socket", "error", err)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close chat socket", "error", closeErr)
		}
	}()

	ctx := r.Context()

	// Replay the conversation so a reopened widget shows prior turns.
	if err := wsjson.Write(ctx, ws, wsOutbound{Type: "history", Messages: h.svc.History(convID)}); err != nil {
		slog.Debug("Failed to send chat history", "error", err)
		return
	}

	for {
		var in wsInbound
		if err := wsjson.Read(ctx, ws, &in); err != nil {
			if websocket.CloseStatus(err) == -1 && ctx.Err() == nil {
				slog.Debug("Chat socket read error", "error", err)
			}
			return
		}

		if in.Type != "message" {
			continue
		}

		if err := h.relay(ctx, ws, convID, in.Text); err != nil {
			return
		}
	}
}

// relay runs one send through the service and forwards every delta.
func (h *WebSocketHandler) relay(ctx context.Context, ws *websocket.Conn, convID, text string) error {
	seq, err := h.svc.Send(ctx, convID, text)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		return wsjson.Write(ctx, ws, wsOutbound{Type: "error", Error: "message is required"})
	case errors.Is(err, ErrBusy):
		return wsjson.Write(ctx, ws, wsOutbound{Type: "error", Error: "a reply is already in progress"})
	case err != nil:
		return wsjson.Write(ctx, ws, wsOutbound{Type: "error", Error: "failed to start reply"})
	}

	for delta, seqErr := range seq {
		if seqErr != nil {
			slog.Warn("Chat sequence error", "conversation_id", convID, "error", seqErr)
			break
		}
		frame := wsOutbound{Type: "delta", Text: delta.Text}
		if delta.Fallback {
			frame.Type = "fallback"
		}
		if err := wsjson.Write(ctx, ws, frame); err != nil {
			return err
		}
	}

	return wsjson.Write(ctx, ws, wsOutbound{Type: "done"})
}

// conversationIDForUpgrade reads the conversation cookie, issuing one on the
// upgrade response when absent. Headers must be set before websocket.Accept
// writes the 101 response.
func conversationIDForUpgrade(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ConversationCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ConversationCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
