// Package status implements the status-module evaluator of spec.md §4.5:
// named `{token}` producers that are substituted into template strings on
// demand.
package status

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/vimiv-engine/vimiv/internal/signal"
)

// Producer returns the current text for one status module. Producers must
// be pure with respect to the template (spec.md §4.5): they may read
// process state but must not block or suspend.
type Producer func() string

var tokenExpr = regexp.MustCompile(`^\{[^{}]+\}$`)

// moduleExpr finds `{...}` occurrences non-greedily, mirroring the
// original's `re.compile(r"\{.*?\}")`.
var moduleExpr = regexp.MustCompile(`\{.*?\}`)

// Evaluator owns the registered status modules.
type Evaluator struct {
	mu        sync.Mutex
	producers map[string]Producer

	loggedUnknown map[string]bool
	onUnknown     func(token string)

	Update signal.Bus[string]
	Clear  signal.Bus[string]
}

// New returns an Evaluator with no modules registered.
func New() *Evaluator {
	return &Evaluator{
		producers:     make(map[string]Producer),
		loggedUnknown: make(map[string]bool),
	}
}

// Register adds a producer under token, which must look like "{name}".
func (e *Evaluator) Register(token string, producer Producer) error {
	if !tokenExpr.MatchString(token) {
		return fmt.Errorf("status: invalid module name %q, must start with '{' and end with '}'", token)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.producers[token] = producer
	return nil
}

// SetUnknownLogger installs the callback invoked the first time a given
// unknown token is seen. Each distinct token is reported once for the
// evaluator's lifetime; the set of tokens already reported is not bounded
// and nothing is evicted from it. Tests may leave this nil.
func (e *Evaluator) SetUnknownLogger(fn func(token string)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUnknown = fn
}

// Evaluate scans text for `{...}` tokens and replaces each with the
// matching producer's return value. Unknown tokens are replaced with the
// empty string; each distinct unknown token is logged only once.
func (e *Evaluator) Evaluate(text string) string {
	matches := moduleExpr.FindAllString(text, -1)
	for _, name := range matches {
		e.mu.Lock()
		producer, ok := e.producers[name]
		e.mu.Unlock()

		if !ok {
			text = replaceFirst(text, name, "")
			e.logUnknownOnce(name)
			continue
		}
		text = replaceFirst(text, name, producer())
	}
	return text
}

func (e *Evaluator) logUnknownOnce(name string) {
	e.mu.Lock()
	already := e.loggedUnknown[name]
	e.loggedUnknown[name] = true
	onUnknown := e.onUnknown
	e.mu.Unlock()

	if !already && onUnknown != nil {
		onUnknown(name)
	}
}

// replaceFirst replaces only the first occurrence of old in s, preserving
// the identity of any other occurrences of the same token that are bound
// to independent positions (mirrors Python str.replace's all-occurrence
// semantics applied token-by-token in original order, since each match
// from FindAllString corresponds 1:1 to one occurrence here).
func replaceFirst(s, old, new string) string {
	idx := indexOf(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// NotifyUpdate re-runs every template subscribed by the GUI collaborator,
// which itself subscribes to Update and re-evaluates its own text.
func (e *Evaluator) NotifyUpdate(reason string) {
	e.Update.Emit(reason)
}

// NotifyClear asks subscribers to clear any transient status text.
func (e *Evaluator) NotifyClear(reason string) {
	e.Clear.Emit(reason)
}
