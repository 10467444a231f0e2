// Package logging implements the leveled logger of SPEC_FULL.md §4.10,
// generalizing the teacher's `log.Printf("[component] ...")` convention
// (internal/sync/worker.go) into a small multi-sink logger with a
// TTY-aware console and an always-on debug-level file sink.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Level orders severities from least to most severe, matching
// spec.md §6's --log-level choices.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Error
	Critical
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel parses one of spec.md §6's --log-level values.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return Debug, nil
	case "info":
		return Info, nil
	case "warning":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical":
		return Critical, nil
	default:
		return Info, fmt.Errorf("logging: unknown level %q", s)
	}
}

// colorCode returns the ANSI color vimiv's terminal console uses for
// level, empty for levels below Warning (kept plain to avoid noise).
func colorCode(l Level) string {
	switch l {
	case Warning:
		return "33"
	case Error, Critical:
		return "31"
	default:
		return ""
	}
}

// Logger fans every message out to a file sink (always at Debug) and a
// console sink (at consoleLevel, colorized only when the console is a
// TTY), per spec.md §7: "Logging always records to file at debug level
// and to the console at the configured level."
type Logger struct {
	mu           sync.Mutex
	file         io.Writer
	console      io.Writer
	consoleLevel Level
	consoleIsTTY bool
}

// New opens logFile (creating parent directories if needed) for the file
// sink and uses console for the level-filtered sink.
func New(logFile string, console io.Writer, consoleLevel Level) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("logging: create directory for %s: %w", logFile, err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logging: open %s: %w", logFile, err)
	}

	isTTY := false
	if cf, ok := console.(*os.File); ok {
		isTTY = isatty.IsTerminal(cf.Fd()) || isatty.IsCygwinTerminal(cf.Fd())
	}

	return &Logger{
		file:         f,
		console:      console,
		consoleLevel: consoleLevel,
		consoleIsTTY: isTTY,
	}, nil
}

// Component returns a child logger that prefixes every message with
// "[name]", mirroring the teacher's bracketed-tag convention.
func (l *Logger) Component(name string) *Component {
	return &Component{logger: l, name: name}
}

func (l *Logger) log(level Level, component, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	line := fmt.Sprintf("%s [%s] %s: %s\n",
		time.Now().Format(time.RFC3339), component, level, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	io.WriteString(l.file, line)

	if level < l.consoleLevel {
		return
	}
	if l.consoleIsTTY {
		if code := colorCode(level); code != "" {
			fmt.Fprintf(l.console, "\x1b[%sm%s\x1b[0m", code, line)
			return
		}
	}
	io.WriteString(l.console, line)
}

// Component is a named view onto a Logger, analogous to the teacher's
// "[sync] ..." / "[cache] ..." log-line prefixes, one per subsystem.
type Component struct {
	logger *Logger
	name   string
}

func (c *Component) Debugf(format string, args ...any)    { c.logger.log(Debug, c.name, format, args...) }
func (c *Component) Infof(format string, args ...any)     { c.logger.log(Info, c.name, format, args...) }
func (c *Component) Warningf(format string, args ...any)  { c.logger.log(Warning, c.name, format, args...) }
func (c *Component) Errorf(format string, args ...any)    { c.logger.log(Error, c.name, format, args...) }
func (c *Component) Criticalf(format string, args ...any) { c.logger.log(Critical, c.name, format, args...) }
