package command

import "github.com/vimiv-engine/vimiv/internal/mode"

// Context bundles the narrow collaborator interfaces a command Handler or
// the wildcard expander needs, following spec.md §9's "explicit dependency
// passing" design note: handlers are plain functions receiving a context
// struct instead of a dynamically injected `self`.
type Context struct {
	// Mode is the mode the command line was run from.
	Mode mode.ID

	// CurrentPath returns the single "current" path (e.g. the image under
	// the cursor), or "" if there is none.
	CurrentPath func() string

	// CurrentPaths returns every path in the active view (e.g. all images
	// in the current directory), used by the %f wildcard.
	CurrentPaths func() []string

	// MarkedPaths returns the user's marked-path list, used by the %m
	// wildcard.
	MarkedPaths func() []string
}

func (c *Context) currentPath() string {
	if c == nil || c.CurrentPath == nil {
		return ""
	}
	return c.CurrentPath()
}

func (c *Context) currentPaths() []string {
	if c == nil || c.CurrentPaths == nil {
		return nil
	}
	return c.CurrentPaths()
}

func (c *Context) markedPaths() []string {
	if c == nil || c.MarkedPaths == nil {
		return nil
	}
	return c.MarkedPaths()
}
