// Package config implements the ambient configuration stack of
// SPEC_FULL.md §4.9: a typed settings registry plus INI loaders for
// vimiv.conf and keys.conf.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Kind identifies the Go type backing a Setting's value.
type Kind int

const (
	Bool Kind = iota
	Int
	Float
	String
)

// Value is a tagged union holding one setting's current value.
type Value struct {
	Kind Kind
	B    bool
	I    int
	F    float64
	S    string
}

func BoolValue(b bool) Value     { return Value{Kind: Bool, B: b} }
func IntValue(i int) Value       { return Value{Kind: Int, I: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, F: f} }
func StringValue(s string) Value { return Value{Kind: String, S: s} }

// UnknownSettingError is returned by operations referencing a setting name
// that was never defined. Per spec.md §7 this is non-fatal: the caller
// logs it and moves on.
type UnknownSettingError struct{ Name string }

func (e *UnknownSettingError) Error() string {
	return fmt.Sprintf("unknown setting %q", e.Name)
}

// InvalidValueError is returned when a raw string cannot be coerced to a
// setting's declared Kind, or a mutator is applied to a non-numeric Kind.
type InvalidValueError struct {
	Name  string
	Value string
	Kind  Kind
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value %q for setting %q", e.Value, e.Name)
}

// Settings is the process-wide typed key-value store mirroring the
// original's `api.settings` (SPEC_FULL.md §3): each name has a declared
// Kind and a current Value, independently mutable by `:set` and by INI
// config loading.
type Settings struct {
	mu    sync.Mutex
	kinds map[string]Kind
	order []string
	vals  map[string]Value
}

// NewSettings returns an empty registry.
func NewSettings() *Settings {
	return &Settings{
		kinds: make(map[string]Kind),
		vals:  make(map[string]Value),
	}
}

// Define registers name with its Kind and default value. Re-defining an
// existing name resets both its Kind and current value.
func (s *Settings) Define(name string, def Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.kinds[name]; !ok {
		s.order = append(s.order, name)
	}
	s.kinds[name] = def.Kind
	s.vals[name] = def
}

// Names returns every defined setting name in definition order.
func (s *Settings) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns name's current value.
func (s *Settings) Get(name string) (Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vals[name]
	if !ok {
		return Value{}, &UnknownSettingError{Name: name}
	}
	return v, nil
}

func (s *Settings) Bool(name string) bool {
	v, _ := s.Get(name)
	return v.B
}

func (s *Settings) Int(name string) int {
	v, _ := s.Get(name)
	return v.I
}

func (s *Settings) Float(name string) float64 {
	v, _ := s.Get(name)
	return v.F
}

func (s *Settings) String(name string) string {
	v, _ := s.Get(name)
	return v.S
}

// Set parses raw according to name's declared Kind and stores it. Unknown
// names and unparsable values return an error without mutating the
// registry (spec.md §7: the setting stays at its prior value).
func (s *Settings) Set(name, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, ok := s.kinds[name]
	if !ok {
		return &UnknownSettingError{Name: name}
	}
	v, err := parseValue(kind, raw)
	if err != nil {
		return &InvalidValueError{Name: name, Value: raw, Kind: kind}
	}
	s.vals[name] = v
	return nil
}

func parseValue(kind Kind, raw string) (Value, error) {
	switch kind {
	case Bool:
		b, err := parseBool(raw)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(b), nil
	case Int:
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, err
		}
		return IntValue(i), nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, err
		}
		return FloatValue(f), nil
	default:
		return StringValue(raw), nil
	}
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "on":
		return true, nil
	case "false", "no", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("config: %q is not a boolean", raw)
	}
}

// AddTo adds delta to a numeric (Int or Float) setting, as `:set NAME
// +DELTA` and `:set NAME -DELTA` do (SPEC_FULL.md §3).
func (s *Settings) AddTo(name string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, ok := s.kinds[name]
	if !ok {
		return &UnknownSettingError{Name: name}
	}
	switch kind {
	case Int:
		v := s.vals[name]
		v.I += int(delta)
		s.vals[name] = v
	case Float:
		v := s.vals[name]
		v.F += delta
		s.vals[name] = v
	default:
		return &InvalidValueError{Name: name, Kind: kind}
	}
	return nil
}

// Toggle flips a Bool setting, as `:set NAME!` does
// (original_source's config/configcommands.py "set" command, trailing
// `!` on the setting name).
func (s *Settings) Toggle(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, ok := s.kinds[name]
	if !ok {
		return &UnknownSettingError{Name: name}
	}
	if kind != Bool {
		return &InvalidValueError{Name: name, Kind: kind}
	}
	v := s.vals[name]
	v.B = !v.B
	s.vals[name] = v
	return nil
}

// Multiply scales a numeric (Int or Float) setting by factor. The `:set`
// command has no multiply form; no builtin command calls Multiply.
func (s *Settings) Multiply(name string, factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kind, ok := s.kinds[name]
	if !ok {
		return &UnknownSettingError{Name: name}
	}
	switch kind {
	case Int:
		v := s.vals[name]
		v.I = int(float64(v.I) * factor)
		s.vals[name] = v
	case Float:
		v := s.vals[name]
		v.F *= factor
		s.vals[name] = v
	default:
		return &InvalidValueError{Name: name, Kind: kind}
	}
	return nil
}
