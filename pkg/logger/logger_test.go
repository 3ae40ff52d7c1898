package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf).With(String("component", "engine"))
	l.Info("analysis done",
		Int("points", 12),
		Float64("mean", 4.5),
		Bool("cached", true),
		Duration("took", 1500*time.Millisecond),
		Error(errors.New("boom")),
	)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if entry["message"] != "analysis done" || entry["level"] != "info" {
		t.Fatalf("unexpected entry %v", entry)
	}
	if entry["component"] != "engine" || entry["points"] != float64(12) || entry["mean"] != 4.5 {
		t.Fatalf("missing fields %v", entry)
	}
	if entry["took"] != float64(1500) || entry["error"] != "boom" || entry["cached"] != true {
		t.Fatalf("unexpected typed fields %v", entry)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Output: "stdout"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNop(t *testing.T) {
	NewNop().Error("ignored", String("k", "v"))
}
