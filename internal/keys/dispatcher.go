package keys

import (
	"strconv"
	"sync"
	"time"

	"github.com/vimiv-engine/vimiv/internal/mode"
	"github.com/vimiv-engine/vimiv/internal/signal"
)

// DefaultTimeout is keyhint.timeout's default value (spec.md §4.3).
const DefaultTimeout = 5 * time.Second

// PartialMatch is emitted whenever the accumulated key buffer is a proper
// prefix of at least one binding.
type PartialMatch struct {
	Prefix string
	Leaves []Leaf
}

// Dispatcher implements the event -> sequence -> (count, key) -> command
// pipeline of spec.md §4.2/§4.3: two independent, time-bounded buffers (a
// decimal count prefix and a partial key-sequence prefix), both cleared on
// a Full or NoMatch outcome, both extended on their own timer.
type Dispatcher struct {
	registry *Registry

	// CommandMode, when set, identifies the mode in which digit tokens are
	// never treated as a count prefix (spec.md: "while the active mode is
	// not COMMAND").
	CommandMode mode.ID

	// Execute is called on a Full match with the accumulated count (and
	// whether one was actually typed) and the bound command string. The
	// dispatcher has already cleared both buffers by the time Execute runs.
	Execute func(m mode.ID, count int, hasCount bool, command string)

	// OnNoMatch is called with the raw event tokens that produced NoMatch,
	// handing the event back to the GUI collaborator (spec.md §4.2).
	OnNoMatch func(tokens []Token)

	PartialMatches signal.Bus[PartialMatch]
	PartialCleared signal.Bus[struct{}]

	timeout time.Duration

	mu           sync.Mutex
	countBuf     string
	countTimer   *time.Timer
	partialBuf   []Token
	partialTimer *time.Timer
}

// NewDispatcher returns a dispatcher matching against registry, with the
// given keyhint timeout (0 means DefaultTimeout).
func NewDispatcher(registry *Registry, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{registry: registry, timeout: timeout, CommandMode: mode.Unset}
}

// HandleKey feeds one key event (already tokenized into eventTokens, almost
// always a single Token) through the dispatcher for the given active mode.
func (d *Dispatcher) HandleKey(m mode.ID, eventTokens []Token) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isCountDigit(m, eventTokens) {
		d.countBuf += string(eventTokens[0])
		d.resetCountTimerLocked()
		return
	}

	seq := make([]Token, 0, len(d.partialBuf)+len(eventTokens))
	seq = append(seq, d.partialBuf...)
	seq = append(seq, eventTokens...)

	result := d.registry.Match(m, seq)
	switch result.Kind {
	case Full:
		count, hasCount := d.consumeCountLocked()
		d.clearPartialLocked()
		cmd := result.Command
		if d.Execute != nil {
			d.Execute(m, count, hasCount, cmd)
		}
	case Partial:
		d.partialBuf = seq
		d.resetPartialTimerLocked()
		d.PartialMatches.Emit(PartialMatch{Prefix: Join(seq), Leaves: result.Leaves})
	case NoMatch:
		d.clearPartialLocked()
		d.clearCountLocked()
		if d.OnNoMatch != nil {
			d.OnNoMatch(eventTokens)
		}
	}
}

func (d *Dispatcher) isCountDigit(m mode.ID, tokens []Token) bool {
	if len(tokens) != 1 || len(d.partialBuf) != 0 {
		return false
	}
	if m == d.CommandMode {
		return false
	}
	r := tokens[0]
	return len(r) == 1 && r[0] >= '0' && r[0] <= '9'
}

func (d *Dispatcher) consumeCountLocked() (count int, hasCount bool) {
	if d.countBuf == "" {
		return 0, false
	}
	n, err := strconv.Atoi(d.countBuf)
	d.clearCountLocked()
	if err != nil {
		return 0, false
	}
	return n, true
}

func (d *Dispatcher) clearCountLocked() {
	d.countBuf = ""
	if d.countTimer != nil {
		d.countTimer.Stop()
		d.countTimer = nil
	}
}

func (d *Dispatcher) clearPartialLocked() {
	hadPartial := len(d.partialBuf) > 0
	d.partialBuf = nil
	if d.partialTimer != nil {
		d.partialTimer.Stop()
		d.partialTimer = nil
	}
	if hadPartial {
		d.PartialCleared.Emit(struct{}{})
	}
}

func (d *Dispatcher) resetCountTimerLocked() {
	if d.countTimer != nil {
		d.countTimer.Stop()
	}
	d.countTimer = time.AfterFunc(d.timeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.clearCountLocked()
	})
}

func (d *Dispatcher) resetPartialTimerLocked() {
	if d.partialTimer != nil {
		d.partialTimer.Stop()
	}
	d.partialTimer = time.AfterFunc(d.timeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.clearPartialLocked()
	})
}

// Stop cancels any pending timers, used at shutdown and in tests.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.countTimer != nil {
		d.countTimer.Stop()
	}
	if d.partialTimer != nil {
		d.partialTimer.Stop()
	}
}
