package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// TranscriptEvent is one NDJSON line in a conversation transcript.
type TranscriptEvent struct {
	Timestamp      string `json:"ts"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"`
	Text           string `json:"text"`
	Chunks         int    `json:"chunks,omitempty"`
	Partial        bool   `json:"partial,omitempty"`
	StreamError    string `json:"stream_error,omitempty"`
}

// TranscriptLogger appends chat turns to one NDJSON file per conversation.
// Writes go through a bounded queue so a slow disk never stalls a stream;
// events are dropped when the queue is full. A nil *TranscriptLogger is a
// valid no-op logger.
type TranscriptLogger struct {
	dir       string
	queue     chan TranscriptEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewTranscriptLogger creates the transcript directory and starts the writer.
func NewTranscriptLogger(dir string, queueSize int) (*TranscriptLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create transcript directory: %w", err)
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	l := &TranscriptLogger{
		dir:   dir,
		queue: make(chan TranscriptEvent, queueSize),
		done:  make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues an event. Never blocks; drops when the queue is full.
func (l *TranscriptLogger) Log(ev TranscriptEvent) {
	if l == nil {
		return
	}
	select {
	case l.queue <- ev:
	default:
		slog.Debug("Transcript queue full, dropping event", "conversation_id", ev.ConversationID)
	}
}

// Close stops the writer after draining queued events.
func (l *TranscriptLogger) Close() error {
	if l == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *TranscriptLogger) run() {
	defer close(l.done)
	for ev := range l.queue {
		if err := l.write(ev); err != nil {
			slog.Warn("Failed to write transcript event", "error", err, "conversation_id", ev.ConversationID)
		}
	}
}

func (l *TranscriptLogger) write(ev TranscriptEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal transcript event: %w", err)
	}

	path := filepath.Join(l.dir, ev.ConversationID+".ndjson")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open transcript file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append transcript line: %w", err)
	}
	return nil
}
