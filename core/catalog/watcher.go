package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"soundfolio/logger"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a file-based catalog whenever the file changes on disk.
type Watcher struct {
	loader   *Loader
	onReload func(*Catalog)
	debounce time.Duration
}

// NewWatcher creates a watcher that calls onReload with every catalog that
// loads successfully after a change. Failed reloads are logged and the
// previous catalog stays in place.
func NewWatcher(loader *Loader, onReload func(*Catalog)) *Watcher {
	return &Watcher{loader: loader, onReload: onReload, debounce: reloadDebounce}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.loader.IsFile() {
		return fmt.Errorf("catalog source %s is not a local file", w.loader.Source())
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Editors and the tracks CLI replace the file via rename, so watch the
	// directory rather than the file itself.
	target := filepath.Clean(w.loader.Source())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", logger.ErrorField(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	c, err := w.loader.Load(ctx)
	if err != nil {
		logger.Error("catalog reload failed, keeping previous catalog", logger.ErrorField(err))
		return
	}
	w.onReload(c)
}
