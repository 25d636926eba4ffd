package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLogger_WritesJSONAboveLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "executor", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "visible", "user_id", "u1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %s", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if entry["msg"] != "visible" {
		t.Errorf("expected msg visible, got %v", entry["msg"])
	}
	if entry["service"] != "executor" {
		t.Errorf("expected service executor, got %v", entry["service"])
	}
	if entry["user_id"] != "u1" {
		t.Errorf("expected user_id u1, got %v", entry["user_id"])
	}
}

func TestLogger_EventsReceiveRecords(t *testing.T) {
	var got []Record
	events := &Events{
		Warn: func(ctx context.Context, r Record) { got = append(got, r) },
	}
	log := New(&bytes.Buffer{}, LevelDebug, "executor", events)

	log.Info(context.Background(), "ignored")
	log.Warn(context.Background(), "balance check failed", "chain_id", 137)

	if len(got) != 1 {
		t.Fatalf("expected 1 warn event, got %d", len(got))
	}
	if got[0].Message != "balance check failed" {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"info", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
