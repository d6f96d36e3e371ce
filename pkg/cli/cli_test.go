package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// ============================================================================
// Error Tests
// ============================================================================

func TestConfigErrorMessages(t *testing.T) {
	withField := NewConfigError("storage.backend", "unknown backend")
	if got := withField.Error(); !strings.Contains(got, "storage.backend") {
		t.Errorf("Error() = %q, want field name included", got)
	}

	withoutField := NewConfigError("", "failed to load config")
	if got := withoutField.Error(); strings.Contains(got, " in ") {
		t.Errorf("Error() = %q, should not mention a field", got)
	}
}

func TestCommandErrorUnwraps(t *testing.T) {
	cause := errors.New("store unavailable")
	err := NewCommandError("status", cause)

	if !errors.Is(err, cause) {
		t.Error("CommandError should unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "status") {
		t.Errorf("Error() = %q, want command name included", err.Error())
	}
}

// ============================================================================
// Output Formatter Tests
// ============================================================================

func TestJSONFormatter(t *testing.T) {
	f := NewFormatter(FormatJSON)

	var buf bytes.Buffer
	data := map[string]any{"overall": "healthy", "daily_usd": 4.25}
	if err := f.FormatTo(&buf, data); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["overall"] != "healthy" {
		t.Errorf("overall = %v, want healthy", decoded["overall"])
	}
	// Indented output spans multiple lines.
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("JSON output should be indented")
	}
}

func TestTextFormatterDefault(t *testing.T) {
	f := NewFormatter("unknown")
	if _, ok := f.(*TextFormatter); !ok {
		t.Fatalf("NewFormatter fallback is %T, want *TextFormatter", f)
	}

	var buf bytes.Buffer
	if err := f.FormatTo(&buf, "3 violations"); err != nil {
		t.Fatalf("FormatTo: %v", err)
	}
	if buf.String() != "3 violations\n" {
		t.Errorf("output = %q", buf.String())
	}
}

// ============================================================================
// Progress Reporter Tests
// ============================================================================

func TestProgressReporterRenders(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(4)
	p.Update(2)
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "50.0%") {
		t.Errorf("output = %q, want midpoint percentage", out)
	}
	if !strings.Contains(out, "(4/4)") {
		t.Errorf("output = %q, want completion marker", out)
	}
}

func TestProgressReporterZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf)

	p.Start(0)
	p.Update(0)
	if strings.Contains(buf.String(), "%") {
		t.Errorf("zero-total progress should not render a bar: %q", buf.String())
	}
}
