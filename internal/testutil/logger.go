package testutil

import (
	"bufio"
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

// NewBufferLogger returns a debug-level JSON logger and its backing buffer.
func NewBufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, &buf
}

// LogEntries decodes every JSON line written by a NewBufferLogger logger.
func LogEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	sc := bufio.NewScanner(strings.NewReader(buf.String()))
	for sc.Scan() {
		line := sc.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		entry := map[string]any{}
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

// FindLog returns the first entry whose msg equals msg.
func FindLog(t *testing.T, buf *bytes.Buffer, msg string) (map[string]any, bool) {
	t.Helper()
	for _, entry := range LogEntries(t, buf) {
		if entry["msg"] == msg {
			return entry, true
		}
	}
	return nil, false
}
