package chat

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTranscriptLoggerWritesPerConversationNDJSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewTranscriptLogger(dir, 16)
	if err != nil {
		t.Fatalf("NewTranscriptLogger failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	logger.Log(TranscriptEvent{
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		ConversationID: "conv-1",
		Role:           RoleUser,
		Text:           "do you have tulips?",
	})

	path := filepath.Join(dir, "conv-1.ndjson")
	line := waitForLogLine(t, path)

	var got TranscriptEvent
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("failed to unmarshal transcript line: %v", err)
	}
	if got.Role != RoleUser || got.Text != "do you have tulips?" {
		t.Fatalf("unexpected transcript event: %+v", got)
	}
}

func TestTranscriptLoggerCloseDrainsQueue(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logger, err := NewTranscriptLogger(dir, 16)
	if err != nil {
		t.Fatalf("NewTranscriptLogger failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		logger.Log(TranscriptEvent{ConversationID: "conv-2", Role: RoleAssistant, Text: "chunk"})
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "conv-2.ndjson"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if got := len(strings.Split(strings.TrimSpace(string(data)), "\n")); got != 5 {
		t.Fatalf("expected 5 transcript lines, got %d", got)
	}
}

func TestNilTranscriptLoggerIsNoop(t *testing.T) {
	t.Parallel()

	var logger *TranscriptLogger
	logger.Log(TranscriptEvent{ConversationID: "x"})
	if err := logger.Close(); err != nil {
		t.Fatalf("nil Close returned %v", err)
	}
}

func waitForLogLine(t *testing.T, path string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) > 0 {
				return lines[len(lines)-1]
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for transcript file %s", path)
	return ""
}
