// Package tags implements the supplemental tag-set feature of
// SPEC_FULL.md §3/§10: a named, ordered set of absolute paths persisted as
// YAML under $XDG_DATA_HOME/vimiv/tags/<name>.yaml, grounded on the
// teacher's own use of gopkg.in/yaml.v3 for its config surface and on the
// tag concept referenced by original_source's persistent-state layout.
package tags

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store manages tag-set files under dir ($XDG_DATA_HOME/vimiv/tags).
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if necessary.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// Write persists paths under name, overwriting any existing tag set.
func (s *Store) Write(name string, paths []string) error {
	data, err := yaml.Marshal(paths)
	if err != nil {
		return fmt.Errorf("tags: marshal %q: %w", name, err)
	}
	if err := os.WriteFile(s.path(name), data, 0o644); err != nil {
		return fmt.Errorf("tags: write %q: %w", name, err)
	}
	return nil
}

// Load returns the paths stored under name.
func (s *Store) Load(name string) ([]string, error) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		return nil, fmt.Errorf("tags: read %q: %w", name, err)
	}
	var paths []string
	if err := yaml.Unmarshal(data, &paths); err != nil {
		return nil, fmt.Errorf("tags: parse %q: %w", name, err)
	}
	return paths, nil
}

// Remove deletes the tag set named name.
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.path(name)); err != nil {
		return fmt.Errorf("tags: remove %q: %w", name, err)
	}
	return nil
}

// List returns the names of every persisted tag set.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := filepath.Ext(name)
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, name[:len(name)-len(ext)])
		}
	}
	return names, nil
}
