package keys

import (
	"fmt"

	"github.com/vimiv-engine/vimiv/internal/mode"
)

// Registry stores one Trie per concrete mode. A binding registered under
// mode.Global is inserted into every mode in the GLOBALS set (spec.md §3),
// so it can be matched without the dispatcher needing to know about
// GLOBAL at all.
type Registry struct {
	modes  *mode.Registry
	tries  map[mode.ID]*Trie
	global *Trie // kept for introspection (listing/unbinding global bindings)
}

// NewRegistry returns a registry bound to modes, used to resolve the
// GLOBALS set when a GLOBAL binding is registered.
func NewRegistry(modes *mode.Registry) *Registry {
	return &Registry{
		modes:  modes,
		tries:  make(map[mode.ID]*Trie),
		global: NewTrie(),
	}
}

func (r *Registry) trieFor(m mode.ID) *Trie {
	t, ok := r.tries[m]
	if !ok {
		t = NewTrie()
		r.tries[m] = t
	}
	return t
}

// Bind registers keyStr -> command for mode m. If m is mode.Global, the
// binding is inserted into the trie of every GLOBALS member.
func (r *Registry) Bind(m mode.ID, keyStr, command string) error {
	tokens, err := Tokenize(keyStr)
	if err != nil {
		return err
	}

	if m == mode.Global {
		if err := r.global.Insert(tokens, keyStr, command); err != nil {
			return err
		}
		for _, g := range r.modes.Globals() {
			if err := r.trieFor(g).Insert(tokens, keyStr, command); err != nil {
				return fmt.Errorf("bind %q globally: %w", keyStr, err)
			}
		}
		return nil
	}
	return r.trieFor(m).Insert(tokens, keyStr, command)
}

// Unbind removes a binding previously registered for mode m (or for every
// GLOBALS member, if m is mode.Global).
func (r *Registry) Unbind(m mode.ID, keyStr string) error {
	tokens, err := Tokenize(keyStr)
	if err != nil {
		return err
	}
	if m == mode.Global {
		_ = r.global.Delete(tokens)
		for _, g := range r.modes.Globals() {
			r.trieFor(g).Delete(tokens)
		}
		return nil
	}
	return r.trieFor(m).Delete(tokens)
}

// Match looks up tokens in the trie for mode m.
func (r *Registry) Match(m mode.ID, tokens []Token) MatchResult {
	return r.trieFor(m).Match(tokens)
}

// Leaves lists every binding in mode m's trie. This includes bindings added
// via a GLOBAL bind: those are stored in the same per-mode trie and are
// indistinguishable from a direct bind, mirroring the original's single
// combined lookup table per mode.
func (r *Registry) Leaves(m mode.ID) []Leaf {
	return r.trieFor(m).Leaves()
}
