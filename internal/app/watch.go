package app

import (
	"context"

	"github.com/spf13/afero"

	"github.com/dshills/modcore/internal/config/watcher"
)

// WatchConfig reloads the application whenever the configuration document
// is written or recreated. Watching stops when ctx is canceled or Close is
// called. The document must live on the OS file system.
//
// A reload rewrites the document only when its encoding changes, so the
// write it causes settles after one extra event.
func (a *Application) WatchConfig(ctx context.Context) error {
	if _, ok := a.opts.Fs.(*afero.OsFs); !ok {
		return ErrWatchUnsupported
	}

	a.mu.Lock()
	if !a.started {
		a.mu.Unlock()
		return ErrNotStarted
	}
	if a.watcher != nil {
		a.mu.Unlock()
		return watcher.ErrRunning
	}
	w := watcher.New(
		watcher.WithDebounce(a.opts.Debounce),
		watcher.WithLogger(a.logger),
	)
	a.watcher = w
	a.mu.Unlock()

	if err := w.Watch(a.store.Path()); err != nil {
		a.clearWatcher(w)
		return err
	}
	w.OnChange(a.configChanged)

	if err := w.Start(ctx); err != nil {
		a.clearWatcher(w)
		return err
	}
	a.logger.Info().Str("path", a.store.Path()).Msg("Watching configuration")
	return nil
}

func (a *Application) configChanged(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		a.logger.Debug().Str("path", ev.Path).Str("op", ev.Op.String()).Msg("Configuration moved away, waiting")
		return
	}

	a.logger.Info().Str("path", ev.Path).Msg("Configuration changed, reloading")
	if _, err := a.reload("watch"); err != nil {
		a.logger.Warn().Err(err).Msg("Reload finished with errors")
	}
}

func (a *Application) clearWatcher(w *watcher.Watcher) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.watcher == w {
		a.watcher = nil
	}
}

func (a *Application) stopWatching() {
	a.mu.Lock()
	w := a.watcher
	a.watcher = nil
	a.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}
