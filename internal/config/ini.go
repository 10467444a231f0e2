package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mvo5/goconfigparser"
)

// FatalError marks a configuration problem that SPEC_FULL.md §4.9 treats
// as unrecoverable: a syntax error in the INI file, or an `${env:NAME}`
// interpolation failure. The caller (cmd/vimiv) logs it at critical level
// and exits with code 3.
type FatalError struct {
	File string
	Err  error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

var envTokenExpr = regexp.MustCompile(`\$\{([^:}]*):([^}]*)\}`)

// interpolate replaces every `${prefix:name}` token in raw. Only "env" is
// a supported prefix; any other prefix, or a missing environment
// variable, is a config error (spec.md §6, §7).
func interpolate(raw string, getenv func(string) (string, bool)) (string, error) {
	var outerErr error
	out := envTokenExpr.ReplaceAllStringFunc(raw, func(tok string) string {
		m := envTokenExpr.FindStringSubmatch(tok)
		prefix, name := m[1], m[2]
		if prefix != "env" {
			outerErr = fmt.Errorf("config: unknown interpolation prefix %q in %q", prefix, tok)
			return tok
		}
		val, ok := getenv(name)
		if !ok {
			outerErr = fmt.Errorf("config: environment variable %q is not set", name)
			return tok
		}
		return val
	})
	if outerErr != nil {
		return "", outerErr
	}
	return out, nil
}

// LogFunc reports a non-fatal configuration problem (unknown setting,
// unparsable value, unknown section) to the log at error level.
type LogFunc func(format string, args ...any)

// LoadSettings parses path as an INI file and applies every `section.key =
// value` pair onto reg after `${env:NAME}` interpolation. A missing file is
// not an error — config files are optional (spec.md §6 describes defaults
// for every setting). Syntax and interpolation errors are fatal; unknown
// settings or values are reported via logError and skipped.
func LoadSettings(path string, reg *Settings, getenv func(string) (string, bool), logError LogFunc) error {
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
		keys, err := parser.Options(section)
		if err != nil {
			continue
		}
		for _, key := range keys {
			raw, err := parser.Get(section, key)
			if err != nil {
				continue
			}
			value, err := interpolate(raw, getenv)
			if err != nil {
				return &FatalError{File: path, Err: err}
			}

			name := strings.ToLower(section) + "." + strings.ToLower(key)
			if err := reg.Set(name, value); err != nil {
				if logError != nil {
					logError("config: %s: %v", path, err)
				}
			}
		}
	}
	return nil
}

// readFileOrNil reads path, returning (nil, nil) if it does not exist
// since config files are optional.
func readFileOrNil(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
