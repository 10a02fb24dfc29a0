// Package watcher turns filesystem events under the library roots into
// debounced rescan requests. It only speeds up discovery; the scheduled scan
// remains the source of truth, so dropped events are harmless.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"reelshelf/internal/logging"
	"reelshelf/internal/mediatypes"
	"reelshelf/internal/metrics"
	"reelshelf/internal/scanner"
)

// DefaultDebounce is the quiet period after the last event before OnChange
// fires.
const DefaultDebounce = time.Second

// ErrStopped is returned by Start on a watcher that was already started or
// stopped.
var ErrStopped = errors.New("watcher stopped")

// OnChange receives the video paths created or removed since the last call,
// sorted and deduplicated.
type OnChange func(paths []string)

// Config controls a Watcher.
type Config struct {
	Roots       []string
	IgnoreRules []string
	Debounce    time.Duration
}

// Watcher monitors library roots recursively.
type Watcher struct {
	fw       *fsnotify.Watcher
	config   Config
	callback OnChange

	mu      sync.Mutex
	watched map[string]struct{}
	pending map[string]struct{}
	timer   *time.Timer
	started bool
	stopped bool

	stop chan struct{}
	done chan struct{}
}

// New creates a Watcher. Nothing is watched until Start.
func New(config Config, cb OnChange) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return &Watcher{
		fw:       fw,
		config:   config,
		callback: cb,
		watched:  make(map[string]struct{}),
		pending:  make(map[string]struct{}),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches every directory under the roots and begins processing
// events. Missing roots are skipped.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.stopped || w.started {
		w.mu.Unlock()
		return ErrStopped
	}
	for _, root := range w.config.Roots {
		if err := w.addRecursive(root); err != nil {
			logging.Warn("Watcher could not add %s: %v", root, err)
		}
	}
	count := len(w.watched)
	w.started = true
	w.mu.Unlock()

	go w.eventLoop()
	logging.Info("Watching %d directories across %d roots", count, len(w.config.Roots))
	return nil
}

// Stop ends event processing and drops any pending change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	started := w.started
	w.mu.Unlock()

	close(w.stop)
	_ = w.fw.Close()
	if started {
		<-w.done
	}
}

// WatchedCount returns the number of watched directories.
func (w *Watcher) WatchedCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// addRecursive must be called with mu held.
func (w *Watcher) addRecursive(root string) error {
	if _, err := os.Stat(root); err != nil {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (mediatypes.IsPrunedDir(d.Name()) || scanner.MatchesIgnoreRule(path, w.config.IgnoreRules)) {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			logging.Debug("Watcher could not add %s: %v", path, err)
			return nil
		}
		w.watched[path] = struct{}{}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			logging.Warn("Watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	isCreate := event.Has(fsnotify.Create)
	isRemove := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
	if !isCreate && !isRemove {
		if event.Has(fsnotify.Write) {
			w.extend(event.Name)
		}
		return
	}

	name := filepath.Base(event.Name)

	if isCreate {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if mediatypes.IsPrunedDir(name) {
				return
			}
			w.mu.Lock()
			if !w.stopped {
				if err := w.addRecursive(event.Name); err != nil {
					logging.Debug("Watcher could not add %s: %v", event.Name, err)
				}
			}
			w.mu.Unlock()
			return
		}
	}

	if isRemove {
		w.mu.Lock()
		if _, ok := w.watched[event.Name]; ok {
			delete(w.watched, event.Name)
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()
	}

	if !Relevant(event.Name, w.config.Roots, w.config.IgnoreRules) {
		metrics.WatcherEventsTotal.WithLabelValues("ignored").Inc()
		return
	}

	if isCreate {
		metrics.WatcherEventsTotal.WithLabelValues("create").Inc()
	} else {
		metrics.WatcherEventsTotal.WithLabelValues("remove").Inc()
	}
	w.schedule(event.Name)
}

// schedule records path and restarts the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.Debounce, w.flush)
}

// extend restarts the debounce timer when path is already pending, so a file
// still being copied in is not reported until its writes go quiet. Writes to
// paths that were never created or removed are ignored.
func (w *Watcher) extend(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.timer == nil {
		return
	}
	if _, ok := w.pending[path]; !ok {
		return
	}

	w.timer.Stop()
	w.timer = time.AfterFunc(w.config.Debounce, w.flush)
	metrics.WatcherEventsTotal.WithLabelValues("write").Inc()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	sort.Strings(paths)
	logging.Debug("Watcher flushing %d changed paths", len(paths))
	if w.callback != nil {
		w.callback(paths)
	}
}

// Relevant reports whether a changed path could affect the catalog: a video
// file under one of the roots that the scanner would not skip.
func Relevant(path string, roots, ignoreRules []string) bool {
	name := filepath.Base(path)
	if mediatypes.IsSkippedFile(name) || !mediatypes.IsVideo(filepath.Ext(name)) {
		return false
	}

	for _, root := range roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		pruned := false
		for _, dir := range parts[:len(parts)-1] {
			if mediatypes.IsPrunedDir(dir) {
				pruned = true
				break
			}
		}
		if !pruned {
			return !scanner.MatchesIgnoreRule(path, ignoreRules)
		}
	}
	return false
}
