package tags

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestWriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	want := []string{"/pics/a.jpg", "/pics/b.jpg"}
	if err := s.Write("favorites", want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := s.Load("favorites")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("Load = %v, want %v", got, want)
	}

	if _, err := os.Stat(filepath.Join(dir, "favorites.yaml")); err != nil {
		t.Fatalf("expected favorites.yaml to exist: %v", err)
	}
}

func TestListAndRemove(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	s.Write("a", []string{"/x"})
	s.Write("b", []string{"/y"})

	names, err := s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("List = %v, want [a b]", names)
	}

	if err := s.Remove("a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Load("a"); err == nil {
		t.Fatal("expected error loading removed tag set")
	}
}
