package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"google.golang.org/genai"
)

// ErrNoAPIKey indicates the assistant is not configured.
var ErrNoAPIKey = errors.New("gemini api key is not configured")

// GeminiStreamer implements Streamer over the Gemini API. It keeps one
// long-lived chat session, created lazily on the first send so that startup
// does not depend on the upstream service.
type GeminiStreamer struct {
	client *genai.Client
	model  string
	system string

	mu      sync.Mutex
	session *genai.Chat
}

// NewGeminiStreamer creates a Gemini-backed streamer. The system instruction
// is fixed for the lifetime of the streamer.
func NewGeminiStreamer(ctx context.Context, apiKey, model, system string) (*GeminiStreamer, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiStreamer{client: client, model: model, system: system}, nil
}

// chatSession returns the long-lived chat session, creating it on first use.
func (g *GeminiStreamer) chatSession(ctx context.Context) (*genai.Chat, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.session != nil {
		return g.session, nil
	}

	session, err := g.client.Chats.Create(ctx, g.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(g.system, genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}

	g.session = session
	slog.Info("Gemini chat session created", "model", g.model)
	return session, nil
}

// Send submits one user turn and yields response fragments as they arrive.
func (g *GeminiStreamer) Send(ctx context.Context, text string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		session, err := g.chatSession(ctx)
		if err != nil {
			yield("", err)
			return
		}

		for resp, err := range session.SendMessageStream(ctx, genai.Part{Text: text}) {
			if err != nil {
				yield("", fmt.Errorf("chat stream: %w", err))
				return
			}
			if t := resp.Text(); t != "" {
				if !yield(t, nil) {
					return
				}
			}
		}
	}
}

// Close releases upstream resources. The genai client holds no connection
// state that needs explicit shutdown.
func (g *GeminiStreamer) Close() {}
