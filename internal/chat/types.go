// Package chat implements the storefront assistant: a thin bridge between the
// chat widget and the Gemini API.
package chat

import (
	"context"
	"iter"
	"strconv"
	"time"
)

// Roles for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Greeting opens every conversation.
const Greeting = "Hi! I'm the shop assistant. Looking for a specific flower or need a recommendation for an occasion?"

// FallbackText is appended when the upstream service cannot be reached.
const FallbackText = "I'm having trouble connecting right now. Please call us directly!"

// Message is a single chat turn. User messages are created complete;
// assistant messages start empty and grow while a reply streams.
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Delta is one streamed fragment of an assistant reply.
type Delta struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback,omitempty"`
}

// Streamer opens one streamed assistant reply per call.
type Streamer interface {
	// Send submits one user turn to the long-lived upstream session and
	// yields response fragments in arrival order until the stream ends.
	Send(ctx context.Context, text string) iter.Seq2[string, error]

	// Close releases upstream resources.
	Close()
}

func newMessageID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}
