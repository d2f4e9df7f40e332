package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestInitJSONCarriesService(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	initTo(&buf, "dispatcher", "")
	slog.Info("hello", "entry_id", "wq_1")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["service"] != "dispatcher" || line["entry_id"] != "wq_1" {
		t.Fatalf("unexpected log line: %v", line)
	}
}

func TestInitUnknownFormatWarns(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	initTo(&buf, "api", "yaml")
	if !strings.Contains(buf.String(), "unknown log format") {
		t.Fatalf("expected warning, got %q", buf.String())
	}
}

func TestDurationsAreReadable(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	initTo(&buf, "api", "json")
	slog.Info("http request", "duration", 1500*time.Millisecond)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["duration"] != "1.5s" {
		t.Fatalf("expected 1.5s, got %v", line["duration"])
	}
}
