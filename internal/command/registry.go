package command

import (
	"fmt"

	"github.com/vimiv-engine/vimiv/internal/mode"
)

// UnknownCommandError reports that name has no registered command for mode
// m (nor for GLOBAL).
type UnknownCommandError struct {
	Name string
	Mode mode.ID
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// ArgumentError reports a missing required parameter, an unknown option,
// or a failed type coercion (spec.md §4.4).
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

// Registry holds one command table and one alias table per mode, plus a
// GLOBAL table of each shared across every GLOBALS member (spec.md §3).
type Registry struct {
	modes *mode.Registry

	byMode map[mode.ID]map[string]*Command
	global map[string]*Command

	aliasByMode map[mode.ID]map[string]string
	globalAlias map[string]string

	History *History
}

// NewRegistry returns an empty command registry bound to modes.
func NewRegistry(modes *mode.Registry) *Registry {
	return &Registry{
		modes:       modes,
		byMode:      make(map[mode.ID]map[string]*Command),
		global:      make(map[string]*Command),
		aliasByMode: make(map[mode.ID]map[string]string),
		globalAlias: make(map[string]string),
		History:     NewHistory(100),
	}
}

// Register adds cmd to the registry. A command named cmd.Name must be
// unique within its own table (per-mode, or the GLOBAL table).
func (r *Registry) Register(cmd Command) error {
	if cmd.Mode == mode.Global {
		if _, exists := r.global[cmd.Name]; exists {
			return fmt.Errorf("command: %q already registered for GLOBAL", cmd.Name)
		}
		c := cmd
		r.global[cmd.Name] = &c
		return nil
	}
	table, ok := r.byMode[cmd.Mode]
	if !ok {
		table = make(map[string]*Command)
		r.byMode[cmd.Mode] = table
	}
	if _, exists := table[cmd.Name]; exists {
		return fmt.Errorf("command: %q already registered for mode %d", cmd.Name, cmd.Mode)
	}
	c := cmd
	table[cmd.Name] = &c
	return nil
}

// Lookup resolves name for mode m: mode-specific commands shadow GLOBAL
// commands of the same name.
func (r *Registry) Lookup(m mode.ID, name string) (*Command, error) {
	if table, ok := r.byMode[m]; ok {
		if c, ok := table[name]; ok {
			return c, nil
		}
	}
	if c, ok := r.global[name]; ok {
		return c, nil
	}
	return nil, &UnknownCommandError{Name: name, Mode: m}
}

// List returns every non-hidden command visible from mode m (its own table
// plus GLOBAL), used by completion.
func (r *Registry) List(m mode.ID) []*Command {
	var out []*Command
	if table, ok := r.byMode[m]; ok {
		for _, c := range table {
			if !c.Hidden {
				out = append(out, c)
			}
		}
	}
	for _, c := range r.global {
		if !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

// Alias registers name as shorthand for expansion in mode m (or, if m is
// mode.Global, in the shared global alias table, spec.md §3).
func (r *Registry) Alias(m mode.ID, name, expansion string) error {
	if m == mode.Global {
		r.globalAlias[name] = expansion
		return nil
	}
	table, ok := r.aliasByMode[m]
	if !ok {
		table = make(map[string]string)
		r.aliasByMode[m] = table
	}
	table[name] = expansion
	return nil
}

// resolveAlias returns the expansion for name in mode m, checking the
// mode's own alias table first, then the global table (spec.md §4.4 step
// 3: "the current mode's alias table plus the global alias table").
func (r *Registry) resolveAlias(m mode.ID, name string) (string, bool) {
	if table, ok := r.aliasByMode[m]; ok {
		if exp, ok := table[name]; ok {
			return exp, true
		}
	}
	exp, ok := r.globalAlias[name]
	return exp, ok
}
