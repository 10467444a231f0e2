// Package xdg resolves the base directories spec.md §6's persistent-state
// layout is rooted at, generalizing the teacher's DefaultDBPath
// (internal/db/store.go), which falls back from $XDG_CONFIG_HOME to
// os.UserConfigDir(), into the three XDG roots vimiv needs.
package xdg

import (
	"os"
	"path/filepath"
)

// ConfigHome returns $XDG_CONFIG_HOME, or os.UserConfigDir() if unset.
func ConfigHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(os.Getenv("HOME"), ".config")
	}
	return dir
}

// DataHome returns $XDG_DATA_HOME, or ~/.local/share if unset.
func DataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.Getenv("HOME"), ".local", "share")
	}
	return filepath.Join(home, ".local", "share")
}

// CacheHome returns $XDG_CACHE_HOME, or os.UserCacheDir() if unset.
func CacheHome() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return dir
}

// VimivConfigDir is $XDG_CONFIG_HOME/vimiv.
func VimivConfigDir() string { return filepath.Join(ConfigHome(), "vimiv") }

// VimivDataDir is $XDG_DATA_HOME/vimiv.
func VimivDataDir() string { return filepath.Join(DataHome(), "vimiv") }

// VimivCacheDir is $XDG_CACHE_HOME (thumbnails live directly under this,
// per spec.md §6's layout: "$XDG_CACHE_HOME/thumbnails/...").
func VimivCacheDir() string { return CacheHome() }

// MakeDirs creates every directory in dirs, including parents.
func MakeDirs(dirs ...string) error {
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
