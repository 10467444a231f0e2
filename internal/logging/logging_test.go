package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileSinkAlwaysRecordsDebug(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "vimiv.log")
	var console bytes.Buffer

	logger, err := New(logFile, &console, Warning)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c := logger.Component("watch")
	c.Debugf("scanning %s", "/pics")

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "[watch] DEBUG: scanning /pics") {
		t.Fatalf("log file missing debug line: %q", data)
	}
	if console.Len() != 0 {
		t.Fatalf("console should stay empty below its level, got %q", console.String())
	}
}

func TestConsoleSinkRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "vimiv.log")
	var console bytes.Buffer

	logger, err := New(logFile, &console, Error)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c := logger.Component("config")
	c.Warningf("unknown setting %q", "library.bogus")
	if console.Len() != 0 {
		t.Fatalf("warning should be filtered below error level, got %q", console.String())
	}

	c.Errorf("fatal: %v", "boom")
	if !strings.Contains(console.String(), "[config] ERROR: fatal: boom") {
		t.Fatalf("console missing error line: %q", console.String())
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"debug", "info", "warning", "error", "critical"} {
		if _, err := ParseLevel(name); err != nil {
			t.Fatalf("ParseLevel(%q): %v", name, err)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
