package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestLoggerIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(Meta{SessionID: "s1", Provider: "gemini"}, &buf, "debug")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}

	l.WithTurn("t1").Info("turn finished", zap.Int("chunks", 3))

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"message":    "turn finished",
		"level":      "info",
		"session_id": "s1",
		"provider":   "gemini",
		"turn_id":    "t1",
		"chunks":     float64(3),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("field %s: expected %v, got %v", k, v, entry[k])
		}
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLogger(Meta{}, &buf, "warn")
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	l.Info("hidden")
	l.Sugar().Warnf("shown %d", 1)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %s", out)
	}
	if !strings.Contains(out, "shown 1") {
		t.Errorf("expected warn entry, got %s", out)
	}
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	if _, err := NewLogger(Meta{}, nil, "loud"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNopDiscards(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	_ = l.Sync()
}
