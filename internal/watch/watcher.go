// Package watch keeps generated READMEs current by watching the workspace
// for source and outline changes and triggering incremental regenerates.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ucdocs/internal/logging"
	"ucdocs/internal/scan"

	"github.com/fsnotify/fsnotify"
)

// RebuildFunc runs one incremental regenerate. Called after events settle.
type RebuildFunc func(ctx context.Context) error

// Watcher watches a workspace tree and debounces change events into
// regenerate runs.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	workspace   string
	outlineFile string
	hiddenAllow []string
	rebuild     RebuildFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	stats Stats
}

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Rebuilds      int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// New creates a watcher over the workspace. debounce controls how long
// events must settle before a rebuild fires.
func New(workspace, outlineFile string, hiddenAllow []string, debounce time.Duration, rebuild RebuildFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     fsw,
		workspace:   workspace,
		outlineFile: outlineFile,
		hiddenAllow: hiddenAllow,
		rebuild:     rebuild,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers the workspace directories and begins the event loop.
// Non-blocking; the loop runs in a goroutine until Stop or ctx cancel.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.workspace); err != nil {
		return err
	}
	logging.Watch("watching %s (%d dirs)", w.workspace, len(w.watcher.WatchList()))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
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
		logging.Get(logging.CategoryWatch).Error("error closing watcher: %v", err)
	}
	logging.Watch("stopped")
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// GetStats returns a snapshot of the watcher statistics.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// addTree registers the workspace and every non-skipped subdirectory.
func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.skipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.WatchDebug("failed to watch %s: %v", path, err)
		}
		return nil
	})
}

// skipDir mirrors the scanner's hidden-directory policy so the watcher never
// reacts to cache or log churn.
func (w *Watcher) skipDir(name string) bool {
	if !strings.HasPrefix(name, ".") {
		return false
	}
	if name == ".git" || name == ".ucdocs" {
		return true
	}
	for _, allowed := range w.hiddenAllow {
		if name == allowed {
			return false
		}
	}
	return true
}

// run is the watcher's event loop.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	debounceTicker := time.NewTicker(100 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Watch("context cancelled")
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
			logging.Get(logging.CategoryWatch).Error("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processSettled(ctx)
		}
	}
}

// handleEvent records a relevant filesystem event for debounced processing.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)

	// New directories must be registered so nested changes are seen.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.skipDir(base) {
				if err := w.addTree(event.Name); err != nil {
					logging.WatchDebug("failed to watch new dir %s: %v", event.Name, err)
				}
			}
			return
		}
	}

	if !w.relevant(base) {
		return
	}

	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	logging.WatchDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType

	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}

	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// relevant reports whether a change to the named file can affect output:
// annotated source, an outline, or an .http attachment.
func (w *Watcher) relevant(base string) bool {
	if base == w.outlineFile {
		return true
	}
	if strings.HasSuffix(base, ".http") {
		return true
	}
	return scan.IsSourceLanguage(scan.DetectLanguage(base))
}

// processSettled fires one rebuild once every recorded event has settled
// past the debounce window.
func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	if len(w.debounceMap) == 0 {
		w.mu.Unlock()
		return
	}
	now := time.Now()
	for _, eventTime := range w.debounceMap {
		if now.Sub(eventTime) < w.debounceDur {
			w.mu.Unlock()
			return
		}
	}
	pending := len(w.debounceMap)
	w.debounceMap = make(map[string]time.Time)
	w.stats.Rebuilds++
	w.mu.Unlock()

	logging.Watch("%d changes settled, regenerating", pending)
	if err := w.rebuild(ctx); err != nil {
		logging.Get(logging.CategoryWatch).Error("regenerate failed: %v", err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
	}
}
