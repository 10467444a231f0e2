package status

import (
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ncruces/go-strftime"
)

// RegisterFilesize registers "{filesize}", producing the byte size of
// currentPath() formatted with humanize.Bytes, replacing the original's
// hand-rolled sizeof_fmt (SPEC_FULL.md §4.11).
func RegisterFilesize(e *Evaluator, currentPath func() string) error {
	return e.Register("{filesize}", func() string {
		path := currentPath()
		if path == "" {
			return ""
		}
		info, err := os.Stat(path)
		if err != nil {
			return ""
		}
		return humanize.Bytes(uint64(info.Size()))
	})
}

// RegisterDate registers "{date}", producing the current local time
// formatted with a user-configurable strftime pattern (SPEC_FULL.md
// §4.11). If layout returns "", the pattern "%Y-%m-%d %H:%M" is used.
func RegisterDate(e *Evaluator, layout func() string) error {
	return e.Register("{date}", func() string {
		pattern := layout()
		if pattern == "" {
			pattern = "%Y-%m-%d %H:%M"
		}
		return strftime.Format(pattern, time.Now())
	})
}

// RegisterMarkIndicator registers "{mark-indicator}", producing indicator
// when currentPath() is marked and "" otherwise (original_source's
// _mark.py mark_indicator status module, SPEC_FULL.md §3/§10).
func RegisterMarkIndicator(e *Evaluator, currentPath func() string, isMarked func(string) bool, indicator string) error {
	return e.Register("{mark-indicator}", func() string {
		path := currentPath()
		if path != "" && isMarked(path) {
			return indicator
		}
		return ""
	})
}

// RegisterMarkCount registers "{mark-count}", the total number of
// currently marked paths, or "" when nothing is marked (_mark.py
// mark_count).
func RegisterMarkCount(e *Evaluator, count func() int) error {
	return e.Register("{mark-count}", func() string {
		n := count()
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	})
}
