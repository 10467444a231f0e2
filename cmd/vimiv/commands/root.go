// Package commands holds the vimiv CLI's single cobra root command,
// grounded on the teacher's cmd/linear-fuse/commands/root.go (package-level
// command var, Execute() entry point, flags bound in init()).
package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vimiv-engine/vimiv/internal/app"
	"github.com/vimiv-engine/vimiv/internal/command"
	"github.com/vimiv-engine/vimiv/internal/config"
	"github.com/vimiv-engine/vimiv/internal/logging"
	"github.com/vimiv-engine/vimiv/internal/version"
)

// Exit codes per spec.md "Command line".
const (
	ExitSuccess       = 0
	ExitUncaught      = 1
	ExitBadDependency = 2
	ExitConfigError   = 3
	ExitForceful      = 42
)

// ExitError carries a process exit code alongside the error cobra prints,
// letting main() translate a RunE failure into the right spec.md exit code
// instead of always exiting 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

var (
	flagFullscreen   bool
	flagVersion      bool
	flagGeometry     string
	flagTempBasedir  bool
	flagConfig       string
	flagKeyfile      string
	flagSet          []string
	flagLogLevel     string
	flagCommands     []string
	flagDebugModules []string
)

var rootCmd = &cobra.Command{
	Use:   "vimiv [PATH...]",
	Short: "A keyboard-driven, vim-inspired image viewer",
	Long: `vimiv is a keyboard-driven image viewer with vim-like keybindings,
a command line, and a thumbnail/library browser.`,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. main() is responsible for mapping any
// returned error to a process exit code via AsExitCode.
func Execute() error {
	return rootCmd.Execute()
}

// AsExitCode extracts the process exit code intended for err, defaulting
// to ExitUncaught (spec.md "1: uncaught exception") for anything not
// wrapped in an ExitError.
func AsExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.Code
	}
	return ExitUncaught
}

func asExitError(err error, target **ExitError) bool {
	for err != nil {
		if e, ok := err.(*ExitError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&flagFullscreen, "fullscreen", "f", false, "start in fullscreen")
	flags.BoolVarP(&flagVersion, "version", "v", false, "print version information and exit")
	flags.StringVarP(&flagGeometry, "geometry", "g", "", "initial window size WIDTHxHEIGHT")
	flags.BoolVar(&flagTempBasedir, "temp-basedir", false, "use a throwaway basedir for config/data/cache")
	flags.StringVar(&flagConfig, "config", "", "path to an alternate vimiv.conf")
	flags.StringVar(&flagKeyfile, "keyfile", "", "path to an alternate keys.conf")
	flags.StringSliceVarP(&flagSet, "set", "s", nil, "OPTION=VALUE, repeatable")
	flags.StringVar(&flagLogLevel, "log-level", "info", "debug|info|warning|error|critical")
	flags.StringArrayVar(&flagCommands, "command", nil, "command to run after startup, repeatable")
	flags.StringSliceVar(&flagDebugModules, "debug", nil, "enable debug logging for MODULE...")
}

func runRoot(cmd *cobra.Command, args []string) error {
	if flagVersion {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		return nil
	}

	level, err := logging.ParseLevel(flagLogLevel)
	if err != nil {
		return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("--log-level: %w", err)}
	}

	if flagGeometry != "" {
		if _, _, err := parseGeometry(flagGeometry); err != nil {
			return &ExitError{Code: ExitConfigError, Err: err}
		}
	}

	dirs := app.DefaultDirs()
	if flagTempBasedir {
		base, err := os.MkdirTemp("", "vimiv-")
		if err != nil {
			return &ExitError{Code: ExitUncaught, Err: err}
		}
		dirs = app.TempDirs(base)
	}

	a, err := app.New(app.Options{
		Dirs:            dirs,
		LogConsole:      cmd.ErrOrStderr(),
		LogConsoleLevel: level,
	})
	if err != nil {
		return &ExitError{Code: ExitUncaught, Err: err}
	}
	defer a.Close()

	cfgPath := flagConfig
	if cfgPath == "" {
		cfgPath = filepath.Join(dirs.Config, "vimiv.conf")
	}
	keyPath := flagKeyfile
	if keyPath == "" {
		keyPath = filepath.Join(dirs.Config, "keys.conf")
	}

	logErr := func(format string, fmtArgs ...any) {
		a.Logger.Component("config").Errorf(format, fmtArgs...)
	}

	if err := config.LoadSettings(cfgPath, a.Settings, os.LookupEnv, logErr); err != nil {
		a.Logger.Component("config").Criticalf("%v", err)
		return &ExitError{Code: ExitConfigError, Err: err}
	}
	if err := config.LoadKeybindings(keyPath, a.Modes, a.Keys, logErr); err != nil {
		a.Logger.Component("config").Criticalf("%v", err)
		return &ExitError{Code: ExitConfigError, Err: err}
	}

	for _, kv := range flagSet {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return &ExitError{Code: ExitConfigError, Err: fmt.Errorf("--set %q: expected OPTION=VALUE", kv)}
		}
		if err := a.Settings.Set(name, value); err != nil {
			a.Logger.Component("config").Warningf("--set %s: %v", name, err)
		}
	}
	a.ShowHidden = a.Settings.Bool("monitor_filesystem.show_hidden")

	startDir, err := resolveStartDir(args)
	if err != nil {
		return &ExitError{Code: ExitUncaught, Err: err}
	}
	if err := a.Watch.Chdir(startDir, true); err != nil {
		return &ExitError{Code: ExitUncaught, Err: err}
	}

	ctx := &command.Context{
		Mode:         a.ModeIDs.Library,
		CurrentPath:  func() string { return firstOrEmpty(a.Watch.Snapshot().Images) },
		CurrentPaths: func() []string { return a.Watch.Snapshot().Images },
		MarkedPaths:  a.Marks.Paths,
	}
	for _, line := range flagCommands {
		result := a.Commands.Run(ctx, ctx.Mode, line, 0, false)
		if result.Kind == command.Err {
			a.Logger.Component("command").Errorf("%s: %s", line, result.Message)
		}
	}

	return nil
}

// parseGeometry validates "WIDTHxHEIGHT" per spec.md "-g, --geometry"
// (both components must be positive integers).
func parseGeometry(s string) (w, h int, err error) {
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid geometry %q, expected WIDTHxHEIGHT", s)
	}
	w, err = strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, fmt.Errorf("invalid geometry width in %q", s)
	}
	h, err = strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, fmt.Errorf("invalid geometry height in %q", s)
	}
	return w, h, nil
}

// resolveStartDir derives the directory the working-directory monitor
// should chdir into: the directory containing the first positional PATH
// argument, or the current directory if none was given.
func resolveStartDir(paths []string) (string, error) {
	if len(paths) == 0 {
		return os.Getwd()
	}
	first := paths[0]
	info, err := os.Stat(first)
	if err != nil {
		return "", fmt.Errorf("%s: %w", first, err)
	}
	if info.IsDir() {
		return first, nil
	}
	return filepath.Dir(first), nil
}

func firstOrEmpty(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	return paths[0]
}
