package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"mercator-hq/saturn/pkg/config"
)

// ============================================================================
// Setup Tests
// ============================================================================

func TestSetupWriterJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	logger.Info("budget check", "component", "enforcer", "limit_usd", 50.0)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "budget check" {
		t.Errorf("msg = %v, want %q", entry["msg"], "budget check")
	}
	if entry["component"] != "enforcer" {
		t.Errorf("component = %v, want enforcer", entry["component"])
	}
}

func TestSetupWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "info", Format: "text"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	logger.Info("rates reloaded")
	if !strings.Contains(buf.String(), "msg=\"rates reloaded\"") {
		t.Errorf("output = %q, want text-format message", buf.String())
	}
}

func TestSetupWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info log emitted at warn level: %q", buf.String())
	}
	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Error("warn log suppressed at warn level")
	}
}

func TestSetupInstallsDefault(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger, err := SetupWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("SetupWriter: %v", err)
	}
	if slog.Default() != logger {
		t.Error("SetupWriter did not install the returned logger as default")
	}
}

func TestSetupRejectsUnknownSettings(t *testing.T) {
	if _, err := SetupWriter(config.LoggingConfig{Level: "trace"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown level accepted")
	}
	if _, err := SetupWriter(config.LoggingConfig{Format: "logfmt"}, &bytes.Buffer{}); err == nil {
		t.Error("unknown format accepted")
	}
}
