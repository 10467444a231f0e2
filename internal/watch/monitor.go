// Package watch implements the working-directory monitor of spec.md §4.6:
// a debounced filesystem watch that classifies directory contents into
// images and sub-directories and emits high-level change signals.
//
// The debounce loop is grounded on golang-tools' gopls file watcher
// (gopls/internal/filewatcher), which wraps fsnotify with the same
// "drain events into a queue, flush on a settle timer" shape this package
// uses for its two independent debounce windows (directory contents, and
// the single watched image file).
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vimiv-engine/vimiv/internal/signal"
)

// DefaultDebounce is the 300ms throttle window spec.md §4.6 specifies.
const DefaultDebounce = 300 * time.Millisecond

// Classifier decides whether a directory entry is an image vimiv can
// display. It stands in for the out-of-scope image-decoding collaborator
// (spec.md §1): the monitor only needs a yes/no answer per name.
type Classifier func(path string, isDir bool) (isImage bool)

// Snapshot is the sorted, classified listing of one directory.
type Snapshot struct {
	Path        string
	Images      []string
	Directories []string
}

// ImagesDelta reports how the image list changed between two snapshots.
type ImagesDelta struct {
	Images  []string
	Added   []string
	Removed []string
}

// Monitor owns the current directory, the last-seen snapshot, and the
// underlying fsnotify watch set (spec.md §3 "Ownership & lifecycle": the
// monitor is the sole mutator of both).
type Monitor struct {
	classifier Classifier
	showHidden func() bool
	debounce   time.Duration

	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu           sync.Mutex
	currentDir   string
	watchedImage string
	snapshot     Snapshot

	timerMu   sync.Mutex
	dirTimer  *time.Timer
	fileTimer *time.Timer

	Loaded        signal.Bus[Snapshot]
	Changed       signal.Bus[Snapshot]
	ImagesChanged signal.Bus[ImagesDelta]
	ImageChanged  signal.Bus[struct{}]
}

// New starts a Monitor. classifier decides image vs. non-image directory
// entries; showHidden reports the current value of the show_hidden setting
// (spec.md §4.6). debounce of 0 uses DefaultDebounce.
func New(classifier Classifier, showHidden func() bool, debounce time.Duration) (*Monitor, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if showHidden == nil {
		showHidden = func() bool { return false }
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	m := &Monitor{
		classifier: classifier,
		showHidden: showHidden,
		debounce:   debounce,
		watcher:    w,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	go m.run()
	return m, nil
}

// Close stops the watch loop and releases the underlying fsnotify watcher.
func (m *Monitor) Close() error {
	close(m.stopCh)
	<-m.doneCh
	return m.watcher.Close()
}

// Chdir switches the monitored directory to path (spec.md §4.6).
func (m *Monitor) Chdir(path string, reloadCurrent bool) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		real = abs
	}

	m.mu.Lock()
	unchanged := real == m.currentDir
	m.mu.Unlock()
	if unchanged && !reloadCurrent {
		return nil
	}

	m.mu.Lock()
	prev := m.currentDir
	m.mu.Unlock()
	if prev != "" {
		_ = m.watcher.Remove(prev)
	}

	if err := os.Chdir(real); err != nil {
		return fmt.Errorf("watch: chdir %s: %w", real, err)
	}

	snap, err := m.loadSnapshot(real)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.currentDir = real
	m.snapshot = snap
	m.mu.Unlock()

	m.Loaded.Emit(snap)

	if err := m.watcher.Add(real); err != nil {
		return fmt.Errorf("watch: add %s: %w", real, err)
	}
	return nil
}

// WatchImage adds path to the watch set so its own rename/write events
// trigger the file_changed debounce (spec.md §4.6). Passing "" stops
// watching any image.
func (m *Monitor) WatchImage(path string) error {
	m.mu.Lock()
	old := m.watchedImage
	m.watchedImage = path
	m.mu.Unlock()

	if old != "" {
		_ = m.watcher.Remove(old)
	}
	if path == "" {
		return nil
	}
	return m.watcher.Add(path)
}

// Snapshot returns the last-loaded listing.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *Monitor) loadSnapshot(dir string) (Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("watch: list %s: %w", dir, err)
	}

	var images, dirs []string
	hidden := m.showHidden()
	for _, e := range entries {
		name := e.Name()
		if !hidden && len(name) > 0 && name[0] == '.' {
			continue
		}
		full := filepath.Join(dir, name)
		if e.IsDir() {
			dirs = append(dirs, full)
			continue
		}
		if m.classifier != nil && m.classifier(full, false) {
			images = append(images, full)
		}
	}
	sort.Strings(images)
	sort.Strings(dirs)
	return Snapshot{Path: dir, Images: images, Directories: dirs}, nil
}

func (m *Monitor) run() {
	defer close(m.doneCh)
	for {
		select {
		case <-m.stopCh:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.routeEvent(event)
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (m *Monitor) routeEvent(event fsnotify.Event) {
	m.mu.Lock()
	dir := m.currentDir
	image := m.watchedImage
	m.mu.Unlock()

	switch {
	case image != "" && event.Name == image:
		m.resetFileTimer()
	case dir != "" && filepath.Dir(event.Name) == dir:
		m.resetDirTimer()
	}
}

func (m *Monitor) resetDirTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.dirTimer != nil {
		m.dirTimer.Stop()
	}
	m.dirTimer = time.AfterFunc(m.debounce, m.onDirSettled)
}

func (m *Monitor) resetFileTimer() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if m.fileTimer != nil {
		m.fileTimer.Stop()
	}
	m.fileTimer = time.AfterFunc(m.debounce, m.onFileSettled)
}

// onDirSettled recomputes the listing once the directory has been quiet
// for the debounce window and emits images_changed/changed as needed
// (spec.md §4.6).
func (m *Monitor) onDirSettled() {
	m.mu.Lock()
	dir := m.currentDir
	prev := m.snapshot
	m.mu.Unlock()
	if dir == "" {
		return
	}

	next, err := m.loadSnapshot(dir)
	if err != nil {
		return
	}

	m.mu.Lock()
	m.snapshot = next
	m.mu.Unlock()

	imagesChanged := !equalStrings(prev.Images, next.Images)
	dirsChanged := !equalStrings(prev.Directories, next.Directories)

	if imagesChanged {
		added, removed := diffStrings(prev.Images, next.Images)
		m.ImagesChanged.Emit(ImagesDelta{Images: next.Images, Added: added, Removed: removed})
	}
	if imagesChanged || dirsChanged {
		m.Changed.Emit(next)
	}
}

// onFileSettled handles the watched image's own change after the debounce
// window. If the file no longer exists there's nothing to do; otherwise it
// is re-added to the watch set (fsnotify can drop a watch across a rename)
// and image_changed fires exactly once (spec.md §4.6).
func (m *Monitor) onFileSettled() {
	m.mu.Lock()
	path := m.watchedImage
	m.mu.Unlock()
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = m.watcher.Add(path)
	m.ImageChanged.Emit(struct{}{})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// diffStrings returns elements of b not in a (added) and elements of a not
// in b (removed). Both slices are assumed sorted.
func diffStrings(a, b []string) (added, removed []string) {
	setA := make(map[string]bool, len(a))
	for _, v := range a {
		setA[v] = true
	}
	setB := make(map[string]bool, len(b))
	for _, v := range b {
		setB[v] = true
	}
	for _, v := range b {
		if !setA[v] {
			added = append(added, v)
		}
	}
	for _, v := range a {
		if !setB[v] {
			removed = append(removed, v)
		}
	}
	return added, removed
}
