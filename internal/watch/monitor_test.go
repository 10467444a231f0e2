package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func imageClassifier(path string, isDir bool) bool {
	if isDir {
		return false
	}
	return strings.HasSuffix(path, ".png") || strings.HasSuffix(path, ".jpg")
}

// Scenario S6: chdir("/pics") with a.png, b.png, sub/ emits
// loaded(["/pics/a.png","/pics/b.png"], ["/pics/sub"]).
func TestScenarioS6ChdirEmitsLoaded(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	m, err := New(imageClassifier, nil, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	var got Snapshot
	done := make(chan struct{})
	m.Loaded.Subscribe(func(s Snapshot) {
		got = s
		close(done)
	})

	if err := m.Chdir(dir, false); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for loaded signal")
	}

	real, _ := filepath.EvalSymlinks(dir)
	wantImages := []string{filepath.Join(real, "a.png"), filepath.Join(real, "b.png")}
	wantDirs := []string{filepath.Join(real, "sub")}

	if !equalStrings(got.Images, wantImages) {
		t.Fatalf("Images = %v, want %v", got.Images, wantImages)
	}
	if !equalStrings(got.Directories, wantDirs) {
		t.Fatalf("Directories = %v, want %v", got.Directories, wantDirs)
	}
}

// Invariant #12 (spec.md §8): N events in a 300ms window produce exactly
// one changed emission.
func TestDirectoryChangesDebounceToOneEmission(t *testing.T) {
	dir := t.TempDir()

	m, err := New(imageClassifier, nil, 40*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if err := m.Chdir(dir, false); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	var emissions int
	ch := make(chan struct{}, 16)
	m.Changed.Subscribe(func(Snapshot) { ch <- struct{}{} })

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "img"+string(rune('0'+i))+".png")
		if err := os.WriteFile(name, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline := time.After(2 * time.Second)
	settle := time.After(300 * time.Millisecond)
drain:
	for {
		select {
		case <-ch:
			emissions++
		case <-settle:
			break drain
		case <-deadline:
			t.Fatal("timed out waiting for debounce to settle")
		}
	}

	if emissions != 1 {
		t.Fatalf("emissions = %d, want 1", emissions)
	}
}

func TestWatchImageEmitsImageChangedOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := New(imageClassifier, nil, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer m.Close()

	if err := m.WatchImage(path); err != nil {
		t.Fatalf("WatchImage: %v", err)
	}

	ch := make(chan struct{}, 8)
	m.ImageChanged.Subscribe(func(struct{}) { ch <- struct{}{} })

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("y"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(5 * time.Millisecond)
	}

	var count int
	deadline := time.After(2 * time.Second)
	settle := time.After(200 * time.Millisecond)
drain:
	for {
		select {
		case <-ch:
			count++
		case <-settle:
			break drain
		case <-deadline:
			t.Fatal("timed out waiting for file debounce")
		}
	}

	if count != 1 {
		t.Fatalf("image_changed count = %d, want 1", count)
	}
}
