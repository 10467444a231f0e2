package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vimiv-engine/vimiv/internal/command"
)

func newTestCtx(a *App) *command.Context {
	return &command.Context{
		Mode:         a.ModeIDs.Library,
		CurrentPath:  func() string { return "" },
		CurrentPaths: func() []string { return nil },
		MarkedPaths:  a.Marks.Paths,
	}
}

func TestSetCommandOverridesAndToggles(t *testing.T) {
	a := newTestApp(t)
	ctx := newTestCtx(a)

	res := a.Commands.Run(ctx, ctx.Mode, ":set monitor_filesystem.show_hidden true", 0, false)
	if res.Kind != command.Ok {
		t.Fatalf("set: %+v", res)
	}
	if !a.Settings.Bool("monitor_filesystem.show_hidden") {
		t.Fatal("expected show_hidden to be true after :set")
	}

	res = a.Commands.Run(ctx, ctx.Mode, ":set monitor_filesystem.show_hidden!", 0, false)
	if res.Kind != command.Ok {
		t.Fatalf("set toggle: %+v", res)
	}
	if a.Settings.Bool("monitor_filesystem.show_hidden") {
		t.Fatal("expected show_hidden to be false after toggle")
	}
}

func TestMarkClearRestoreRoundTrip(t *testing.T) {
	a := newTestApp(t)
	ctx := newTestCtx(a)

	res := a.Commands.Run(ctx, ctx.Mode, ":mark /tmp/a.jpg /tmp/b.jpg --action=mark", 0, false)
	if res.Kind != command.Ok {
		t.Fatalf("mark: %+v", res)
	}
	if a.Marks.Count() != 2 {
		t.Fatalf("Count = %d, want 2", a.Marks.Count())
	}

	a.Commands.Run(ctx, ctx.Mode, ":mark-clear", 0, false)
	if a.Marks.Count() != 0 {
		t.Fatalf("Count after mark-clear = %d, want 0", a.Marks.Count())
	}

	a.Commands.Run(ctx, ctx.Mode, ":mark-restore", 0, false)
	if a.Marks.Count() != 2 {
		t.Fatalf("Count after mark-restore = %d, want 2", a.Marks.Count())
	}
}

func TestTagWriteLoadRoundTrip(t *testing.T) {
	a := newTestApp(t)
	ctx := newTestCtx(a)

	a.Commands.Run(ctx, ctx.Mode, ":mark /tmp/a.jpg --action=mark", 0, false)
	if res := a.Commands.Run(ctx, ctx.Mode, ":tag-write favorites", 0, false); res.Kind != command.Ok {
		t.Fatalf("tag-write: %+v", res)
	}

	a.Marks.Clear()
	if a.Marks.Count() != 0 {
		t.Fatal("expected marks cleared before tag-load")
	}

	if res := a.Commands.Run(ctx, ctx.Mode, ":tag-load favorites", 0, false); res.Kind != command.Ok {
		t.Fatalf("tag-load: %+v", res)
	}
	if a.Marks.Count() != 1 || !a.Marks.IsMarked("/tmp/a.jpg") {
		t.Fatalf("expected tag-load to restore the mark, got %v", a.Marks.Paths())
	}
}

func TestDeleteUndeleteCommandsRoundTrip(t *testing.T) {
	a := newTestApp(t)
	ctx := newTestCtx(a)

	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "photo.jpg")
	if err := os.WriteFile(src, []byte("fake-jpeg"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	res := a.Commands.Run(ctx, ctx.Mode, ":delete "+src, 0, false)
	if res.Kind != command.Info {
		t.Fatalf("delete: %+v", res)
	}
	if _, err := os.Stat(src); err == nil {
		t.Fatal("expected source file to be removed after delete")
	}

	res = a.Commands.Run(ctx, ctx.Mode, ":undelete", 0, false)
	if res.Kind != command.Ok {
		t.Fatalf("undelete: %+v", res)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("expected source file restored after undelete: %v", err)
	}
}

func TestAliasAndBindCommands(t *testing.T) {
	a := newTestApp(t)
	ctx := newTestCtx(a)

	var ran bool
	a.Commands.Register(command.Command{
		Name: "hello",
		Mode: a.ModeIDs.Library,
		Run: func(ctx *command.Context, args command.Args) command.Result {
			ran = true
			return command.ResultOk()
		},
	})

	if res := a.Commands.Run(ctx, ctx.Mode, ":alias hi hello --mode=library", 0, false); res.Kind != command.Ok {
		t.Fatalf("alias: %+v", res)
	}
	if res := a.Commands.Run(ctx, ctx.Mode, ":hi", 0, false); res.Kind != command.Ok || !ran {
		t.Fatalf("alias expansion did not run hello: %+v", res)
	}

	if res := a.Commands.Run(ctx, ctx.Mode, ":bind gg hello --mode=library", 0, false); res.Kind != command.Ok {
		t.Fatalf("bind: %+v", res)
	}
	if res := a.Commands.Run(ctx, ctx.Mode, ":unbind gg --mode=library", 0, false); res.Kind != command.Ok {
		t.Fatalf("unbind: %+v", res)
	}
}
