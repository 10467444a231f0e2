package config

import (
	"strings"

	"github.com/mvo5/goconfigparser"

	"github.com/vimiv-engine/vimiv/internal/keys"
	"github.com/vimiv-engine/vimiv/internal/mode"
)

// LoadKeybindings parses path as an INI file whose sections are mode names
// (case-insensitive) and whose `key = value` pairs are either a binding
// (value is a command string) or `key = unbind` (removes a previously
// registered default binding for that mode). A literal `%%` in a command
// string is unescaped to `%` before reaching the trie, mirroring INI's own
// escaping of `%` (spec.md §6). A missing file is not an error.
func LoadKeybindings(path string, modes *mode.Registry, reg *keys.Registry, logError LogFunc) error {
	data, err := readFileOrNil(path)
	if err != nil {
		return &FatalError{File: path, Err: err}
	}
	if data == nil {
		return nil
	}

	parser := goconfigparser.New()
	if err := parser.ReadString(string(data)); err != nil {
		return &FatalError{File: path, Err: err}
	}

	for _, section := range parser.Sections() {
		modeName := strings.ToLower(section)
		modeID, err := modes.GetByName(modeName)
		if err != nil {
			if modeName == "global" {
				modeID = mode.Global
			} else {
				if logError != nil {
					logError("config: %s: unknown mode %q", path, section)
				}
				continue
			}
		}

		options, err := parser.Options(section)
		if err != nil {
			continue
		}
		for _, key := range options {
			value, err := parser.Get(section, key)
			if err != nil {
				continue
			}
			if value == "unbind" {
				_ = reg.Unbind(modeID, key)
				continue
			}
			command := strings.ReplaceAll(value, "%%", "%")
			if err := reg.Bind(modeID, key, command); err != nil {
				if logError != nil {
					logError("config: %s: bind %q: %v", path, key, err)
				}
			}
		}
	}
	return nil
}
