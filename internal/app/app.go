// Package app wires every interaction-engine subsystem into one process,
// following spec.md §9's "explicit dependency passing" design note: a
// single struct owns each registry/manager and passes collaborators to one
// another as plain fields and function values, never via a service locator
// or global state (grounded on the teacher's internal/cmd/root.go, which
// builds its API client, repo store, and FUSE filesystem by hand in one
// place and hands them to cobra's RunE closures).
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vimiv-engine/vimiv/internal/command"
	"github.com/vimiv-engine/vimiv/internal/config"
	"github.com/vimiv-engine/vimiv/internal/keys"
	"github.com/vimiv-engine/vimiv/internal/logging"
	"github.com/vimiv-engine/vimiv/internal/mark"
	"github.com/vimiv-engine/vimiv/internal/mode"
	"github.com/vimiv-engine/vimiv/internal/status"
	"github.com/vimiv-engine/vimiv/internal/tags"
	"github.com/vimiv-engine/vimiv/internal/thumbnail"
	"github.com/vimiv-engine/vimiv/internal/trash"
	"github.com/vimiv-engine/vimiv/internal/version"
	"github.com/vimiv-engine/vimiv/internal/watch"
	"github.com/vimiv-engine/vimiv/internal/xdg"
)

// Modes enumerates the fixed mode set spec.md §3/§4.1 names. Library,
// Image and Thumbnail are GLOBALS members (spec.md "GLOBALS"); Command and
// Manipulate are not.
type Modes struct {
	Library   mode.ID
	Image     mode.ID
	Thumbnail mode.ID
	Command   mode.ID
	Manipulate mode.ID
}

// Dirs holds the resolved XDG directories an App instance runs against.
// Config and Data/Cache are split out so --temp-basedir can override all
// three to a single scratch directory (spec.md §6).
type Dirs struct {
	Config string
	Data   string
	Cache  string
}

// DefaultDirs resolves the standard XDG locations for vimiv.
func DefaultDirs() Dirs {
	return Dirs{
		Config: xdg.VimivConfigDir(),
		Data:   xdg.VimivDataDir(),
		Cache:  xdg.VimivCacheDir(),
	}
}

// TempDirs builds a Dirs rooted entirely under base, for --temp-basedir
// (spec.md §6): config, data and cache all live under one throwaway tree so
// a run leaves nothing behind on the real XDG paths.
func TempDirs(base string) Dirs {
	return Dirs{
		Config: filepath.Join(base, "config"),
		Data:   filepath.Join(base, "data"),
		Cache:  filepath.Join(base, "cache"),
	}
}

// App bundles every subsystem of the interaction engine. Fields are
// exported because cmd/vimiv and tests construct commands/handlers that
// close over them directly, matching the teacher's pattern of passing
// concrete collaborators rather than an interface bag.
type App struct {
	Dirs Dirs

	Modes   *mode.Registry
	ModeIDs Modes

	Keys       *keys.Registry
	Dispatcher *keys.Dispatcher

	Commands *command.Registry
	History  *command.History

	Status *status.Evaluator

	Settings *config.Settings

	Watch     *watch.Monitor
	Thumbnail *thumbnail.Manager
	Trash     *trash.Manager
	Tags      *tags.Store
	Marks     *mark.List

	Logger *logging.Logger

	// ShowHidden backs the watch monitor's Classifier/showHidden
	// collaborator and the `show_hidden` setting in one place.
	ShowHidden bool

	// lastDeleted holds the trash basenames of the images most recently
	// removed by the "delete" builtin command, used as `:undelete`'s
	// default argument (delete_command.py's `_last_deleted`).
	lastDeleted []string
}

// Options configures New.
type Options struct {
	Dirs Dirs

	LogConsole      io.Writer
	LogConsoleLevel logging.Level

	// LargeThumbnails selects the 256px cache instead of the 128px one
	// (spec.md §4.7 "normal|large").
	LargeThumbnails bool
}

// New constructs a fully wired App. It creates the required directories,
// opens the debug log, and registers the fixed mode set, but does not load
// user config/keybindings or start the filesystem watch — callers (notably
// cmd/vimiv) do that once flags are parsed, since --set/--config/--keyfile
// can all still influence the outcome.
func New(opts Options) (*App, error) {
	dirs := opts.Dirs
	if dirs.Config == "" && dirs.Data == "" && dirs.Cache == "" {
		dirs = DefaultDirs()
	}
	if err := xdg.MakeDirs(dirs.Config, dirs.Data, dirs.Cache); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	console := opts.LogConsole
	if console == nil {
		console = os.Stderr
	}
	logger, err := logging.New(filepath.Join(dirs.Data, "vimiv.log"), console, opts.LogConsoleLevel)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	modes := mode.New()
	ids := Modes{
		Library:    modes.Register("library", mode.Unset),
		Image:      modes.Register("image", mode.Unset),
		Thumbnail:  modes.Register("thumbnail", mode.Unset),
		Manipulate: modes.Register("manipulate", mode.Unset),
	}
	// COMMAND falls back to whichever non-command mode it was entered
	// from; it is never itself recorded as a "last" mode (spec.md §3).
	ids.Command = modes.Register("command", ids.Library)
	modes.MarkGlobal(ids.Library)
	modes.MarkGlobal(ids.Image)
	modes.MarkGlobal(ids.Thumbnail)

	// Neither command nor manipulate may be recorded as another mode's
	// "last" mode, but command's own last-mode policy accepts any other
	// mode (including manipulate) as last, since leaving command should
	// always return to whatever was active before it (spec.md §3).
	modes.MarkNeverLast(ids.Command)
	modes.MarkNeverLast(ids.Manipulate)
	modes.MarkAcceptsAnyLast(ids.Command)

	keysReg := keys.NewRegistry(modes)
	dispatcher := keys.NewDispatcher(keysReg, keys.DefaultTimeout)
	dispatcher.CommandMode = ids.Command

	commands := command.NewRegistry(modes)

	evaluator := status.New()
	evaluator.SetUnknownLogger(func(token string) {
		logger.Component("status").Warningf("unknown status module %q", token)
	})

	settings := config.NewSettings()
	registerDefaultSettings(settings)

	trashMgr, err := trash.New(filepath.Dir(dirs.Data))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	tagStore, err := tags.New(filepath.Join(dirs.Data, "tags"))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	thumbMgr, err := thumbnail.New(dirs.Cache, opts.LargeThumbnails, version.Version, logger.Component("thumbnail"))
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{
		Dirs:       dirs,
		Modes:      modes,
		ModeIDs:    ids,
		Keys:       keysReg,
		Dispatcher: dispatcher,
		Commands:   commands,
		History:    commands.History,
		Status:     evaluator,
		Settings:   settings,
		Thumbnail:  thumbMgr,
		Trash:      trashMgr,
		Tags:       tagStore,
		Marks:      mark.New(),
		Logger:     logger,
		ShowHidden: false,
	}

	classifier := func(path string, isDir bool) bool { return !isDir }
	monitor, err := watch.New(classifier, func() bool { return a.ShowHidden }, watch.DefaultDebounce)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.Watch = monitor

	registerDefaultStatusModules(a)

	if err := registerBuiltinCommands(a); err != nil {
		return nil, err
	}

	return a, nil
}

// Close releases background resources (the watch monitor's fsnotify
// watcher). Safe to call once at shutdown.
func (a *App) Close() error {
	if a.Watch != nil {
		return a.Watch.Close()
	}
	return nil
}

// registerDefaultSettings defines the small set of settings the engine
// itself consumes directly; library/config/*.ini sections may define and
// set additional application-level settings through the same registry.
func registerDefaultSettings(s *config.Settings) {
	s.Define("monitor_filesystem.show_hidden", config.BoolValue(false))
	s.Define("thumbnail.size.large", config.BoolValue(false))
	s.Define("status.date_format", config.StringValue("%Y-%m-%d %H:%M"))
}

// registerDefaultStatusModules wires "{filesize}" and "{date}" against the
// app's live state (SPEC_FULL.md §4.11), replacing the original's
// hand-rolled formatters with github.com/dustin/go-humanize and
// github.com/ncruces/go-strftime respectively.
func registerDefaultStatusModules(a *App) {
	currentPath := func() string {
		snap := a.Watch.Snapshot()
		if len(snap.Images) == 0 {
			return ""
		}
		return snap.Images[0]
	}
	status.RegisterFilesize(a.Status, currentPath)
	status.RegisterDate(a.Status, func() string {
		return a.Settings.String("status.date_format")
	})
	status.RegisterMarkIndicator(a.Status, currentPath, a.Marks.IsMarked, "*")
	status.RegisterMarkCount(a.Status, a.Marks.Count)
}
