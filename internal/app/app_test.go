package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/vimiv-engine/vimiv/internal/logging"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	base := t.TempDir()
	var console bytes.Buffer
	a, err := New(Options{
		Dirs:            TempDirs(base),
		LogConsole:      &console,
		LogConsoleLevel: logging.Critical,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNewWiresFixedModeSet(t *testing.T) {
	a := newTestApp(t)

	if a.Modes.IsGlobal(a.ModeIDs.Library) != true ||
		a.Modes.IsGlobal(a.ModeIDs.Image) != true ||
		a.Modes.IsGlobal(a.ModeIDs.Thumbnail) != true {
		t.Fatal("library, image and thumbnail must be GLOBALS members")
	}
	if a.Modes.IsGlobal(a.ModeIDs.Command) {
		t.Fatal("command must not be a GLOBALS member")
	}
	if a.ModeIDs.Library != a.Modes.Active() {
		t.Fatalf("expected library to be the initial active mode, got %v", a.Modes.Active())
	}
}

func TestNewCreatesXDGDirectories(t *testing.T) {
	base := t.TempDir()
	var console bytes.Buffer
	a, err := New(Options{
		Dirs:            TempDirs(base),
		LogConsole:      &console,
		LogConsoleLevel: logging.Critical,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	for _, dir := range []string{a.Dirs.Config, a.Dirs.Data, a.Dirs.Cache} {
		if fi, err := statDir(dir); err != nil || !fi {
			t.Fatalf("expected directory %s to exist", dir)
		}
	}
	if _, err := statDir(filepath.Join(filepath.Dir(a.Dirs.Data), "Trash", "files")); err != nil {
		t.Fatalf("expected trash files dir to exist: %v", err)
	}
}

func TestDefaultStatusModulesRegistered(t *testing.T) {
	a := newTestApp(t)

	got := a.Status.Evaluate("{date} {filesize}")
	if got == "{date} {filesize}" {
		t.Fatalf("expected modules to be substituted, got %q", got)
	}
}

func statDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}
