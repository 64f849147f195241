package scorecard

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// Watcher reloads a manager whenever its scorecard document changes on disk.
// The parent directory is watched rather than the file, so a document replaced by
// rename shows up as a create event.
type Watcher struct {
	manager  *Manager
	path     string
	debounce time.Duration
}

// NewWatcher creates a watcher for the manager's document. A non-positive debounce
// falls back to the default.
func NewWatcher(manager *Manager, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		manager:  manager,
		path:     filepath.Clean(manager.Path()),
		debounce: debounce,
	}
}

// Run watches the document until ctx is done. Bursts of file events are coalesced
// into one reload after the debounce interval. Reload failures are logged by the
// manager and leave the live snapshot in place.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create scorecard watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	slog.Info("Watching scorecard", "path", w.path)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(evt) {
				continue
			}
			slog.Debug("Scorecard changed", "event", evt.Op.String(), "path", evt.Name)
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Scorecard watcher error", "error", err)
		case <-timer.C:
			_, _ = w.manager.Reload(w.path)
		}
	}
}

func (w *Watcher) relevant(evt fsnotify.Event) bool {
	if filepath.Clean(evt.Name) != w.path {
		return false
	}
	return evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create)
}
