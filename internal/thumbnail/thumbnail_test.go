package thumbnail

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vimiv-engine/vimiv/internal/logging"
)

func newTestLogger(t *testing.T) *logging.Component {
	t.Helper()
	var console bytes.Buffer
	l, err := logging.New(filepath.Join(t.TempDir(), "vimiv.log"), &console, logging.Critical)
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return l.Component("thumbnail")
}

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAsyncEmitsThumbnailWithAttributes(t *testing.T) {
	cacheDir := t.TempDir()
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "a.png")
	writeTestImage(t, src, 512, 256)

	m, err := New(cacheDir, false, "9.9.9", newTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ch := make(chan Created, 1)
	m.Created.Subscribe(func(c Created) { ch <- c })
	m.CreateAsync([]string{src})

	select {
	case ev := <-ch:
		if !ev.Ok {
			t.Fatalf("Created.Ok = false, want true")
		}
		attrs, err := readTextChunks(ev.Path)
		if err != nil {
			t.Fatalf("readTextChunks: %v", err)
		}
		if attrs[KeyURI] != sourceURI(src) {
			t.Fatalf("KeyURI = %q, want %q", attrs[KeyURI], sourceURI(src))
		}
		if attrs[KeySoftware] != "vimiv-9.9.9" {
			t.Fatalf("KeySoftware = %q", attrs[KeySoftware])
		}
		if attrs[KeyWidth] != "128" {
			t.Fatalf("KeyWidth = %q, want 128 (normal size fits 512x256 into 128x128 box)", attrs[KeyWidth])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Created")
	}
}

func TestCreateAsyncSupersedesStaleGeneration(t *testing.T) {
	cacheDir := t.TempDir()
	srcDir := t.TempDir()
	a := filepath.Join(srcDir, "a.png")
	b := filepath.Join(srcDir, "b.png")
	writeTestImage(t, a, 64, 64)
	writeTestImage(t, b, 64, 64)

	m, err := New(cacheDir, false, "1.0.0", newTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var count int
	done := make(chan struct{}, 4)
	m.Created.Subscribe(func(Created) { count++; done <- struct{}{} })

	m.CreateAsync([]string{a})
	m.CreateAsync([]string{b})

	deadline := time.After(2 * time.Second)
	received := 0
	for received < 1 {
		select {
		case <-done:
			received++
		case <-deadline:
			t.Fatal("timed out waiting for Created")
		}
	}
	time.Sleep(100 * time.Millisecond)
	if count > 2 {
		t.Fatalf("count = %d, expected at most one emission per CreateAsync call", count)
	}
}

func TestFailPathUsedForUnreadableSource(t *testing.T) {
	cacheDir := t.TempDir()
	m, err := New(cacheDir, true, "1.0.0", newTestLogger(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ch := make(chan Created, 1)
	m.Created.Subscribe(func(c Created) { ch <- c })
	m.CreateAsync([]string{filepath.Join(cacheDir, "does-not-exist.png")})

	select {
	case ev := <-ch:
		if ev.Ok {
			t.Fatal("Ok = true for missing source, want false")
		}
		if filepath.Dir(ev.Path) != m.failDirectory {
			t.Fatalf("Path dir = %q, want fail directory %q", filepath.Dir(ev.Path), m.failDirectory)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Created")
	}
}
