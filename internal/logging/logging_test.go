package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/next-trace/scg-rideshare/internal/logging"
)

func TestParseLevel(t *testing.T) {
	if logging.ParseLevel("debug") != slog.LevelDebug || logging.ParseLevel("WARN") != slog.LevelWarn {
		t.Fatalf("level mapping")
	}

	if logging.ParseLevel("loud") != slog.LevelInfo {
		t.Fatalf("unknown level must default to info")
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	l := logging.New("warn", "json", &buf)
	l.Info("dropped")
	l.Warn("kept", "ride_id", "r1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("want 1 line, got %q", buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if rec["msg"] != "kept" || rec["ride_id"] != "r1" {
		t.Fatalf("record: %v", rec)
	}
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer

	logging.New("info", "text", &buf).Info("hello", "k", "v")

	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Fatalf("text: %q", buf.String())
	}
}
