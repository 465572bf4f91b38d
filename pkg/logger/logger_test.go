package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandler_JSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(newHandler(&buf, "warn", "json"))

	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("expected info line to be filtered, got %q", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("expected JSON warn line, got %q", out)
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if parseLevel("verbose") != slog.LevelInfo {
		t.Errorf("expected unknown level to map to info")
	}
	if parseLevel("DEBUG") != slog.LevelDebug {
		t.Errorf("expected DEBUG to map to debug")
	}
}

func TestWith_CarriesAttributes(t *testing.T) {
	var buf bytes.Buffer
	prev := log
	log = slog.New(newHandler(&buf, "info", "text"))
	defer func() { log = prev }()

	With("contact", "212612345678").Info("message received")

	if out := buf.String(); !strings.Contains(out, "contact=212612345678") {
		t.Errorf("expected contact attribute, got %q", out)
	}
}
