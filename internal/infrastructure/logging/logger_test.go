package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/openems/dispatch-core/internal/infrastructure/config"
)

func TestNewWithWriter_AttachesServiceFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "1.2.3")

	log.Info("broker connected", "broker", "tcp://localhost:1883")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log record: %v", err)
	}
	if entry["service"] != "dispatch-core" || entry["version"] != "1.2.3" {
		t.Errorf("record = %v, want service and version fields", entry)
	}
	if entry["msg"] != "broker connected" || entry["broker"] != "tcp://localhost:1883" {
		t.Errorf("record = %v, want message and broker attribute", entry)
	}
}

func TestNewWithWriter_FiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "warn", Format: "json"}, "dev")

	log.Info("dropped")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info record not filtered at warn level:\n%s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn record missing:\n%s", out)
	}
}

func TestNewWithWriter_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "debug", Format: "text"}, "dev")

	log.Debug("starting")

	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Errorf("text format produced JSON:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "msg=starting") {
		t.Errorf("text record missing message:\n%s", buf.String())
	}
}

func TestWith_ChildCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, config.LoggingConfig{Level: "info", Format: "json"}, "dev")

	log.With("component", "bridge").Info("publish failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("parsing log record: %v", err)
	}
	if entry["component"] != "bridge" {
		t.Errorf("record = %v, want component=bridge", entry)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}
}
