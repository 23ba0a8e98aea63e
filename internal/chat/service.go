package chat

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"
)

var (
	// ErrBusy is returned when a reply is already streaming for the conversation.
	ErrBusy = errors.New("a reply is already in progress")
	// ErrEmptyMessage is returned for blank user input.
	ErrEmptyMessage = errors.New("message text is required")
)

type conversation struct {
	inFlight bool
	messages []Message
}

// Service owns the per-conversation message lists and relays user turns to
// the configured Streamer. One send is accepted per conversation at a time;
// a second send while one is in flight is rejected with ErrBusy.
type Service struct {
	streamer   Streamer          // nil when the assistant is not configured
	transcript *TranscriptLogger // nil disables transcript logging

	mu    sync.Mutex
	convs map[string]*conversation
}

// NewService creates a chat service. streamer may be nil, in which case every
// send produces the static fallback message.
func NewService(streamer Streamer, transcript *TranscriptLogger) *Service {
	return &Service{
		streamer:   streamer,
		transcript: transcript,
		convs:      make(map[string]*conversation),
	}
}

// Enabled reports whether an upstream assistant is configured.
func (s *Service) Enabled() bool {
	return s.streamer != nil
}

// History returns a copy of the conversation's message list, creating the
// conversation (with its greeting) on first access.
func (s *Service) History(convID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conversationLocked(convID)
	out := make([]Message, len(conv.messages))
	copy(out, conv.messages)
	return out
}

// Send appends the user message and returns a lazy, finite, non-restartable
// sequence of assistant text deltas. The assistant message is created on the
// first delta and extended in arrival order; on upstream failure a static
// fallback message is appended instead and the sequence ends. The caller must
// fully consume the sequence.
func (s *Service) Send(ctx context.Context, convID, text string) (iter.Seq2[Delta, error], error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	conv := s.conversationLocked(convID)
	if conv.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	conv.inFlight = true
	conv.messages = append(conv.messages, Message{
		ID:        newMessageID(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	})
	s.mu.Unlock()

	s.transcript.Log(TranscriptEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: convID,
		Role:           RoleUser,
		Text:           text,
	})

	seq := func(yield func(Delta, error) bool) {
		defer s.finish(convID)

		if s.streamer == nil {
			s.appendMessage(convID, RoleAssistant, FallbackText)
			s.logAssistantTurn(convID, FallbackText, 0, true, ErrNoAPIKey.Error())
			yield(Delta{Text: FallbackText, Fallback: true}, nil)
			return
		}

		var (
			assistantID string
			full        strings.Builder
			chunks      int
		)

		for delta, err := range s.streamer.Send(ctx, text) {
			if err != nil {
				slog.Error("Assistant stream failed", "conversation_id", convID, "error", err)
				s.appendMessage(convID, RoleAssistant, FallbackText)
				s.logAssistantTurn(convID, full.String(), chunks, true, err.Error())
				yield(Delta{Text: FallbackText, Fallback: true}, nil)
				return
			}

			chunks++
			full.WriteString(delta)
			if assistantID == "" {
				assistantID = s.appendMessage(convID, RoleAssistant, delta)
			} else {
				s.extendMessage(convID, assistantID, delta)
			}
			if !yield(Delta{Text: delta}, nil) {
				s.logAssistantTurn(convID, full.String(), chunks, true, "consumer stopped")
				return
			}
		}

		s.logAssistantTurn(convID, full.String(), chunks, false, "")
	}
	return seq, nil
}

// conversationLocked returns the conversation for id, creating it with the
// greeting message when absent. Callers must hold s.mu.
func (s *Service) conversationLocked(id string) *conversation {
	conv, ok := s.convs[id]
	if !ok {
		conv = &conversation{
			messages: []Message{{
				ID:        newMessageID(),
				Role:      RoleAssistant,
				Text:      Greeting,
				Timestamp: time.Now(),
			}},
		}
		s.convs[id] = conv
	}
	return conv
}

func (s *Service) finish(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conv, ok := s.convs[convID]; ok {
		conv.inFlight = false
	}
}

func (s *Service) appendMessage(convID, role, text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conversationLocked(convID)
	msg := Message{
		ID:        newMessageID(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
	conv.messages = append(conv.messages, msg)
	return msg.ID
}

func (s *Service) extendMessage(convID, msgID, delta string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.conversationLocked(convID)
	for i := range conv.messages {
		if conv.messages[i].ID == msgID {
			conv.messages[i].Text += delta
			return
		}
	}
}

func (s *Service) logAssistantTurn(convID, text string, chunks int, partial bool, streamErr string) {
	s.transcript.Log(TranscriptEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: convID,
		Role:           RoleAssistant,
		Text:           text,
		Chunks:         chunks,
		Partial:        partial,
		StreamError:    streamErr,
	})
}

// Close releases the upstream streamer and the transcript logger.
func (s *Service) Close() {
	if s.streamer != nil {
		s.streamer.Close()
	}
	if err := s.transcript.Close(); err != nil {
		slog.Warn("Failed to close transcript logger", "error", err)
	}
}
