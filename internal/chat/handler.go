package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ConversationCookieName identifies a visitor's chat conversation.
const ConversationCookieName = "rabieh_chat_id"

// maxChatBodySize caps chat request bodies (64KB is generous for one turn).
const maxChatBodySize = 64 << 10

// RateLimiter implements a per-conversation sliding-window limiter.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter creates a rate limiter and starts its background eviction.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
	go rl.evictLoop()
	return rl
}

// Allow checks if a request is allowed for the given key.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-r.window)

	var recent []time.Time
	for _, t := range r.requests[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= r.limit {
		r.requests[key] = recent
		return false
	}

	r.requests[key] = append(recent, now)
	return true
}

// evictLoop periodically drops expired keys so the map cannot grow unbounded.
func (r *RateLimiter) evictLoop() {
	ticker := time.NewTicker(r.window)
	defer ticker.Stop()
	for range ticker.C {
		r.mu.Lock()
		cutoff := time.Now().Add(-r.window)
		for key, times := range r.requests {
			var fresh []time.Time
			for _, t := range times {
				if t.After(cutoff) {
					fresh = append(fresh, t)
				}
			}
			if len(fresh) == 0 {
				delete(r.requests, key)
			} else {
				r.requests[key] = fresh
			}
		}
		r.mu.Unlock()
	}
}

// Handler serves the chat widget's HTTP surface.
type Handler struct {
	svc     *Service
	limiter *RateLimiter
	isDev   bool
}

// NewHandler creates a chat handler with a per-conversation rate limit.
func NewHandler(svc *Service, limit int, window time.Duration, isDev bool) *Handler {
	return &Handler{
		svc:     svc,
		limiter: NewRateLimiter(limit, window),
		isDev:   isDev,
	}
}

// RegisterRoutes registers the chat routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/chat", func(r chi.Router) {
		r.Post("/", h.HandleSend)
		r.Get("/history", h.HandleHistory)
	})
}

type sendRequest struct {
	Message string `json:"message"`
}

// HandleSend handles POST /api/chat, streaming the assistant reply via SSE.
func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	convID := h.conversationID(w, r)

	if !h.limiter.Allow(convID) {
		http.Error(w, `{"error": "rate limit exceeded"}`, http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxChatBodySize)
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	seq, err := h.svc.Send(r.Context(), convID, req.Message)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		http.Error(w, `{"error": "message is required"}`, http.StatusBadRequest)
		return
	case errors.Is(err, ErrBusy):
		http.Error(w, `{"error": "a reply is already in progress"}`, http.StatusConflict)
		return
	case err != nil:
		http.Error(w, `{"error": "failed to start reply"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error": "streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	slog.Info("Chat request", "conversation_id", convID, "message_length", len(req.Message))

	for delta, err := range seq {
		if err != nil {
			// The service maps upstream failures to a fallback delta, so an
			// error here only means the sequence itself broke.
			slog.Warn("Chat sequence error", "conversation_id", convID, "error", err)
			break
		}
		data, err := json.Marshal(delta)
		if err != nil {
			slog.Warn("Failed to marshal chat delta", "error", err)
			break
		}
		if err := writeSSE(w, "message", string(data)); err != nil {
			slog.Debug("Client disconnected during chat stream", "conversation_id", convID)
			return
		}
		flusher.Flush()
	}

	if err := writeSSE(w, "done", `{}`); err != nil {
		return
	}
	flusher.Flush()
}

// HandleHistory handles GET /api/chat/history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	convID := h.conversationID(w, r)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"enabled":  h.svc.Enabled(),
		"messages": h.svc.History(convID),
	}); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// conversationID returns the visitor's conversation ID, issuing a cookie when
// the visitor has none yet.
func (h *Handler) conversationID(w http.ResponseWriter, r *http.Request) string {
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
		Secure:   !h.isDev,
	})
	return id
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
