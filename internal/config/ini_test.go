package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsAppliesSectionKeyNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vimiv.conf")
	body := "[LIBRARY]\nwidth = 0.5\n\n[GENERAL]\nshuffle = true\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewSettings()
	reg.Define("library.width", FloatValue(0.3))
	reg.Define("general.shuffle", BoolValue(false))

	getenv := func(string) (string, bool) { return "", false }
	if err := LoadSettings(path, reg, getenv, nil); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}

	if got := reg.Float("library.width"); got != 0.5 {
		t.Fatalf("library.width = %v, want 0.5", got)
	}
	if !reg.Bool("general.shuffle") {
		t.Fatal("general.shuffle = false, want true")
	}
}

func TestLoadSettingsMissingFileIsNotAnError(t *testing.T) {
	reg := NewSettings()
	getenv := func(string) (string, bool) { return "", false }
	if err := LoadSettings("/nonexistent/vimiv.conf", reg, getenv, nil); err != nil {
		t.Fatalf("LoadSettings on missing file: %v", err)
	}
}

func TestLoadSettingsEnvInterpolation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vimiv.conf")
	body := "[GENERAL]\nhome = ${env:MY_HOME}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewSettings()
	reg.Define("general.home", StringValue(""))

	getenv := func(name string) (string, bool) {
		if name == "MY_HOME" {
			return "/home/test", true
		}
		return "", false
	}
	if err := LoadSettings(path, reg, getenv, nil); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got := reg.String("general.home"); got != "/home/test" {
		t.Fatalf("general.home = %q, want /home/test", got)
	}
}

func TestLoadSettingsMissingEnvVarIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vimiv.conf")
	body := "[GENERAL]\nhome = ${env:DOES_NOT_EXIST}\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewSettings()
	reg.Define("general.home", StringValue(""))
	getenv := func(string) (string, bool) { return "", false }

	err := LoadSettings(path, reg, getenv, nil)
	if err == nil {
		t.Fatal("expected fatal error for missing env var")
	}
	if _, ok := err.(*FatalError); !ok {
		t.Fatalf("error type = %T, want *FatalError", err)
	}
}

func TestLoadSettingsUnknownSettingIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vimiv.conf")
	body := "[LIBRARY]\nbogus = 1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := NewSettings()
	var logged []string
	logError := func(format string, args ...any) { logged = append(logged, format) }
	getenv := func(string) (string, bool) { return "", false }

	if err := LoadSettings(path, reg, getenv, logError); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if len(logged) != 1 {
		t.Fatalf("logged = %v, want exactly one non-fatal entry", logged)
	}
}
