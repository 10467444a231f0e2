// Package mode implements the mode registry described in spec.md §3 and
// §4.1: a small set of named UI states, exactly one of which is active at
// any time, with per-mode "last active mode" tracking used to implement
// leave/toggle.
package mode

import (
	"fmt"

	"github.com/vimiv-engine/vimiv/internal/signal"
)

// ID identifies a registered mode. Global is a sentinel pseudo-mode: it is
// never active and is used only as a category key by the keybinding and
// command registries (spec.md §3, "GLOBAL").
type ID int

// Global aggregates bindings/commands shared across the Globals() set. It
// is never returned by Active() and never recorded as a "last" mode.
const Global ID = -1

// Unset marks the absence of a previous mode (used for fallbackLast of a
// mode that should never fall back anywhere meaningful, e.g. the very first
// mode registered).
const Unset ID = -2

type entry struct {
	id           ID
	name         string
	fallbackLast ID
	enteredOnce  bool
	last         ID
}

// Registry owns the set of modes and the single active mode. Registries are
// mutated only at startup/config-reload time; reads are safe for concurrent
// use from the dispatch hot path without additional locking because
// mutation is expected to happen before concurrent reads begin (spec.md
// §3 "Ownership & lifecycle").
type Registry struct {
	modes  []*entry
	byName map[string]ID
	active ID

	// globals is the set of modes GLOBAL-scoped bindings/commands apply to.
	globals map[ID]bool

	// neverLast is the set of modes that must never be recorded as another
	// mode's "last" mode (spec.md §3: command and manipulate), unless that
	// other mode is itself exempted via acceptsAnyLast.
	neverLast map[ID]bool

	// acceptsAnyLast exempts a mode from filtering neverLast candidates out
	// of its own "last" slot. COMMAND records any non-self mode as last,
	// including MANIPULATE, so leaving COMMAND returns to whatever mode was
	// active before it, per original_source's api/modes.py
	// _CommandMode._set_last; ordinary ("main") modes do not.
	acceptsAnyLast map[ID]bool

	// Visible is an injected predicate reporting whether the GUI widget for
	// a mode is currently shown; Toggle uses it to decide between Enter and
	// Leave. It is the "injected predicate" spec.md §4.1 describes. Tests
	// may leave it nil, in which case Toggle behaves as if nothing is ever
	// visible (always Enter).
	Visible func(ID) bool

	Entered      signal.Bus[ID]
	Left         signal.Bus[ID]
	FirstEntered signal.Bus[ID]
}

// New returns an empty registry with no modes registered.
func New() *Registry {
	return &Registry{
		byName:         make(map[string]ID),
		active:         Unset,
		globals:        make(map[ID]bool),
		neverLast:      make(map[ID]bool),
		acceptsAnyLast: make(map[ID]bool),
	}
}

// UnknownModeError is returned by operations referencing a mode id or name
// that was never registered.
type UnknownModeError struct {
	Name string
	ID   ID
}

func (e *UnknownModeError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown mode %q", e.Name)
	}
	return fmt.Sprintf("unknown mode id %d", e.ID)
}

// Register creates a new mode named name whose "last" resets to
// fallbackLast whenever Leave is called on it. The returned ID is stable
// for the lifetime of the registry. Registering the first mode also makes
// it active.
func (r *Registry) Register(name string, fallbackLast ID) ID {
	id := ID(len(r.modes))
	r.modes = append(r.modes, &entry{
		id:           id,
		name:         name,
		fallbackLast: fallbackLast,
		last:         fallbackLast,
	})
	r.byName[name] = id
	if r.active == Unset {
		r.active = id
	}
	return id
}

// MarkGlobal records id as a member of the GLOBALS set (spec.md: "image,
// library, thumbnail").
func (r *Registry) MarkGlobal(id ID) {
	r.globals[id] = true
}

// Globals returns every mode marked with MarkGlobal.
func (r *Registry) Globals() []ID {
	out := make([]ID, 0, len(r.globals))
	for id, ok := range r.globals {
		if ok {
			out = append(out, id)
		}
	}
	return out
}

// IsGlobal reports whether id is a member of the GLOBALS set.
func (r *Registry) IsGlobal(id ID) bool {
	return r.globals[id]
}

// MarkNeverLast excludes id from being recorded as another mode's "last"
// mode (spec.md §3: "Certain modes (command, manipulate) must never be
// recorded as 'last' by other modes").
func (r *Registry) MarkNeverLast(id ID) {
	r.neverLast[id] = true
}

// MarkAcceptsAnyLast exempts id from filtering neverLast candidates out of
// its own "last" slot (spec.md §3: "each mode defines its own last-mode
// policy").
func (r *Registry) MarkAcceptsAnyLast(id ID) {
	r.acceptsAnyLast[id] = true
}

func (r *Registry) get(id ID) (*entry, error) {
	if id < 0 || int(id) >= len(r.modes) {
		return nil, &UnknownModeError{ID: id}
	}
	return r.modes[id], nil
}

// GetByName resolves a registered mode's name to its ID.
func (r *Registry) GetByName(name string) (ID, error) {
	id, ok := r.byName[name]
	if !ok {
		return Unset, &UnknownModeError{Name: name}
	}
	return id, nil
}

// Name returns the human name a mode was registered with.
func (r *Registry) Name(id ID) string {
	e, err := r.get(id)
	if err != nil {
		return ""
	}
	return e.name
}

// Active returns the single currently-active mode.
func (r *Registry) Active() ID {
	return r.active
}

// Last returns the mode id stored as "last" for id.
func (r *Registry) Last(id ID) (ID, error) {
	e, err := r.get(id)
	if err != nil {
		return Unset, err
	}
	return e.last, nil
}

// Enter switches the active mode to id. Entering the already-active mode is
// a no-op (spec.md invariant). The first time a mode is ever entered,
// FirstEntered also fires.
func (r *Registry) Enter(id ID) error {
	target, err := r.get(id)
	if err != nil {
		return err
	}
	if r.active == id {
		return nil
	}

	if r.acceptsAnyLast[id] || !r.neverLast[r.active] {
		target.last = r.active
	}
	r.active = id

	if !target.enteredOnce {
		target.enteredOnce = true
		r.FirstEntered.Emit(id)
	}
	r.Entered.Emit(id)
	return nil
}

// Leave enters whatever mode id currently records as "last", then resets
// id's last back to its fallback (spec.md §4.1). If id has neither a last
// mode nor a fallback (both Unset), there is nowhere to go: Leave does
// nothing and returns nil.
func (r *Registry) Leave(id ID) error {
	e, err := r.get(id)
	if err != nil {
		return err
	}
	last := e.last
	if last == Unset {
		last = e.fallbackLast
	}
	if last == Unset {
		return nil
	}
	if err := r.Enter(last); err != nil {
		return err
	}
	e.last = e.fallbackLast
	r.Left.Emit(id)
	return nil
}

// Toggle enters id if its widget is not currently visible, otherwise
// leaves it. Visibility is supplied by the injected Visible predicate; a
// nil predicate is treated as "never visible".
func (r *Registry) Toggle(id ID) error {
	visible := r.Visible != nil && r.Visible(id)
	if visible {
		return r.Leave(id)
	}
	return r.Enter(id)
}
