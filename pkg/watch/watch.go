// Package watch monitors a site tree and reports settled batches of
// changed paths. Rapid saves are debounced so one editor session does
// not trigger a deploy per keystroke.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sitepush/sitepush/pkg/log"
)

// DefaultDebounce is the settle window applied when Options.Debounce
// is zero.
const DefaultDebounce = 500 * time.Millisecond

// defaultIgnores covers editor scratch files that never belong in a
// build.
var defaultIgnores = []string{"*.swp", "*.swx", "*~", ".#*"}

// Options configures a Watcher.
type Options struct {
	// Root is the directory tree to watch.
	Root string
	// Debounce is how long a path must stay quiet before it is
	// reported (default DefaultDebounce).
	Debounce time.Duration
	// Ignore lists extra patterns to skip. An entry matches a base
	// name glob or a path prefix relative to Root. The .git directory
	// is always skipped.
	Ignore []string
}

// Watcher reports batches of changed paths on Changes.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	opts    Options
	pending map[string]time.Time
	ready   map[string]struct{}
	changes chan []string
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// New creates a watcher for the tree rooted at opts.Root.
func New(opts Options) (*Watcher, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", opts.Root)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem watcher: %w", err)
	}

	return &Watcher{
		watcher: fsw,
		opts:    opts,
		pending: make(map[string]time.Time),
		ready:   make(map[string]struct{}),
		changes: make(chan []string, 1),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// Start registers the tree and begins the event loop. It is
// non-blocking; Stop or a cancelled context ends the loop.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.opts.Root); err != nil {
		return err
	}
	log.Debugf("Watching %s (%d directories)", w.opts.Root, len(w.watcher.WatchList()))

	go w.run(ctx)
	return nil
}

// Stop ends the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		log.Warnf("Failed to close filesystem watcher: %v", err)
	}
}

// Changes delivers sorted batches of settled paths. A batch is held
// until the consumer is ready, with later changes merged in.
func (w *Watcher) Changes() <-chan []string {
	return w.changes
}

// WatchedDirs returns the directories currently registered.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}

// addTree registers dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			log.Warnf("Skipping unreadable path %s: %v", path, err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.ignored(path) {
			return filepath.SkipDir
		}
		if werr := w.watcher.Add(path); werr != nil {
			return fmt.Errorf("failed to watch %s: %w", path, werr)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.opts.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	if tick > 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Watcher error: %v", err)

		case <-ticker.C:
			w.flush(time.Now())
		}
	}
}

// handleEvent records a filesystem event for debounced delivery. A
// freshly created directory is added to the watch so nested writes
// are seen too.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if w.ignored(event.Name) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Warnf("Failed to watch new directory %s: %v", event.Name, err)
			}
		}
	}

	log.Debugf("Change detected: %s (%s)", event.Name, event.Op)

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

// flush moves settled paths into the ready set and attempts delivery.
// Delivery is non-blocking; an undelivered batch keeps accumulating.
func (w *Watcher) flush(now time.Time) {
	w.mu.Lock()
	for path, last := range w.pending {
		if now.Sub(last) >= w.opts.Debounce {
			w.ready[path] = struct{}{}
			delete(w.pending, path)
		}
	}
	if len(w.ready) == 0 {
		w.mu.Unlock()
		return
	}
	batch := make([]string, 0, len(w.ready))
	for path := range w.ready {
		batch = append(batch, path)
	}
	sort.Strings(batch)
	w.mu.Unlock()

	select {
	case w.changes <- batch:
		w.mu.Lock()
		for _, path := range batch {
			delete(w.ready, path)
		}
		w.mu.Unlock()
	default:
	}
}

// ignored reports whether a path should not trigger a deploy.
func (w *Watcher) ignored(path string) bool {
	base := filepath.Base(path)
	if base == ".git" {
		return true
	}

	rel, err := filepath.Rel(w.opts.Root, path)
	if err == nil {
		for _, part := range strings.Split(rel, string(filepath.Separator)) {
			if part == ".git" {
				return true
			}
		}
	}

	patterns := make([]string, 0, len(defaultIgnores)+len(w.opts.Ignore))
	patterns = append(patterns, defaultIgnores...)
	patterns = append(patterns, w.opts.Ignore...)

	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
		if err != nil || rel == "." {
			continue
		}
		clean := filepath.ToSlash(rel)
		p := filepath.ToSlash(pattern)
		if clean == p || strings.HasPrefix(clean, p+"/") {
			return true
		}
	}
	return false
}
