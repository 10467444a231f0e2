// Package command implements the command registry and command-line parser
// of spec.md §4.4: typed parameters, per-mode registries, alias expansion,
// wildcard substitution, and POSIX-style shell splitting.
package command

import (
	"fmt"

	"github.com/vimiv-engine/vimiv/internal/mode"
)

// ParamType is the declared type of a command parameter.
type ParamType int

const (
	TypeInt ParamType = iota
	TypeFloat
	TypeBool
	TypeString
	TypeList
	TypePathGlob
	TypeEnum
	// TypeRawWords greedily consumes every remaining positional token
	// verbatim, like TypePathGlob, but without glob expansion or
	// absolute-pathing — for free-text trailing arguments such as a log
	// message (misccommands.py's "log" command).
	TypeRawWords
)

// ParamKind distinguishes how a parameter is supplied on the command line.
type ParamKind int

const (
	Positional ParamKind = iota
	Optional
	Count
)

// Param describes one command parameter (spec.md §3).
type Param struct {
	Name    string
	Type    ParamType
	Kind    ParamKind
	Default any      // used when Kind == Optional, or Count with no count given
	Enum    []string // valid values when Type == TypeEnum
}

// Handler is the body of a registered command. ctx carries whatever
// collaborators the handler needs (working directory, marked paths, ...);
// args holds the parsed, type-coerced parameter values keyed by name.
type Handler func(ctx *Context, args Args) Result

// Command is one registered command (spec.md §3).
type Command struct {
	Name   string
	Mode   mode.ID
	Hidden bool
	Store  bool
	Edit   bool
	Short  string
	Long   string
	Params []Param
	Run    Handler
}

func (c *Command) param(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Args is the parsed argument bag passed to a Handler.
type Args map[string]any

func (a Args) Int(name string) int {
	v, _ := a[name].(int)
	return v
}

func (a Args) Float(name string) float64 {
	v, _ := a[name].(float64)
	return v
}

func (a Args) Bool(name string) bool {
	v, _ := a[name].(bool)
	return v
}

func (a Args) String(name string) string {
	v, _ := a[name].(string)
	return v
}

func (a Args) List(name string) []string {
	v, _ := a[name].([]string)
	return v
}

// ResultKind classifies the outcome of running a command, replacing the
// exception-driven control flow of the original source (spec.md §9).
type ResultKind int

const (
	Ok ResultKind = iota
	Info
	Warn
	Err
	// External marks a "!..." command line, which is out of scope and
	// handed back to the caller verbatim (spec.md §4.4 step 1).
	External
)

// Result is the tagged outcome of parsing or running a command line.
type Result struct {
	Kind    ResultKind
	Message string
}

func ResultOk() Result                { return Result{Kind: Ok} }
func ResultInfo(msg string) Result    { return Result{Kind: Info, Message: msg} }
func ResultWarn(msg string) Result    { return Result{Kind: Warn, Message: msg} }
func ResultErr(msg string) Result     { return Result{Kind: Err, Message: msg} }
func ResultExternal(cmd string) Result { return Result{Kind: External, Message: cmd} }

// Errorf builds an Err result with a formatted message, mirroring
// CommandError from spec.md §4.4.
func Errorf(format string, args ...any) Result {
	return Result{Kind: Err, Message: fmt.Sprintf(format, args...)}
}
