package trash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeleteUndeleteRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	trashPath, err := m.Delete(src)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(src); err == nil {
		t.Fatal("source still exists after Delete")
	}
	if _, err := os.Stat(trashPath); err != nil {
		t.Fatalf("trash file missing: %v", err)
	}

	info, err := m.TrashInfo(filepath.Base(trashPath))
	if err != nil {
		t.Fatalf("TrashInfo: %v", err)
	}
	if info.OriginalPath != src {
		t.Fatalf("OriginalPath = %q, want %q", info.OriginalPath, src)
	}
	if info.DeletionDate == "" {
		t.Fatal("DeletionDate is empty")
	}

	restored, err := m.Undelete(filepath.Base(trashPath))
	if err != nil {
		t.Fatalf("Undelete: %v", err)
	}
	if restored != src {
		t.Fatalf("restored = %q, want %q", restored, src)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if _, err := os.Stat(trashPath); err == nil {
		t.Fatal("trash copy still exists after Undelete")
	}
}

func TestTrashInfoPathIsSlashPreserving(t *testing.T) {
	dataDir := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "my photo.jpg")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	trashPath, err := m.Delete(src)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	infoPath := m.infoFilename(trashPath)
	body, err := os.ReadFile(infoPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "Path=" + src
	if !strings.Contains(string(body), "Path=/") {
		t.Fatalf(".trashinfo Path is not an unescaped absolute path: %q", body)
	}
	if strings.Contains(string(body), "%2F") {
		t.Fatalf(".trashinfo Path percent-encodes '/': %q", body)
	}
	if !strings.Contains(string(body), strings.ReplaceAll(want, " ", "%20")) {
		t.Fatalf(".trashinfo body = %q, want it to contain a slash-preserving, space-escaped %q", body, want)
	}
}

func TestDeleteCollisionGetsSuffixed(t *testing.T) {
	dataDir := t.TempDir()
	srcDir := t.TempDir()

	m, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var trashed []string
	for i := 0; i < 3; i++ {
		sub := filepath.Join(srcDir, string(rune('a'+i)))
		if err := os.Mkdir(sub, 0o755); err != nil {
			t.Fatal(err)
		}
		src := filepath.Join(sub, "dup.jpg")
		if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		path, err := m.Delete(src)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		trashed = append(trashed, path)
	}

	if trashed[0] == trashed[1] || trashed[1] == trashed[2] {
		t.Fatalf("expected distinct trash paths, got %v", trashed)
	}
	if filepath.Base(trashed[1]) != "dup.jpg.2" {
		t.Fatalf("second trashed name = %q, want dup.jpg.2", filepath.Base(trashed[1]))
	}
	if filepath.Base(trashed[2]) != "dup.jpg.3" {
		t.Fatalf("third trashed name = %q, want dup.jpg.3", filepath.Base(trashed[2]))
	}
}

func TestUndeleteMissingInfoFails(t *testing.T) {
	dataDir := t.TempDir()
	m, err := New(dataDir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := m.Undelete("nonexistent.jpg"); err == nil {
		t.Fatal("expected error restoring unknown basename")
	}
}
