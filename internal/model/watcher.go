package model

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/couchcryptid/road-risk-service/internal/observability"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Handle whenever its artifact file is written or
// replaced.
type Watcher struct {
	handle  *Handle
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWatcher creates a Watcher for the handle's artifact path.
func NewWatcher(handle *Handle, logger *slog.Logger, metrics *observability.Metrics) *Watcher {
	return &Watcher{handle: handle, logger: logger, metrics: metrics}
}

// Run watches the artifact's directory until ctx is cancelled. The directory
// is watched instead of the file so that atomic replace-by-rename is seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create model watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.handle.Path())
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	w.logger.Info("model watcher started", "model_path", target)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("model watcher stopping", "reason", ctx.Err())
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("model watcher error", "error", err)
		}
	}
}

// reload swaps in the artifact on disk. A partial write fails to parse and
// is retried on the next write event.
func (w *Watcher) reload() {
	e, err := w.handle.Load()
	if err != nil {
		w.metrics.ModelReloads.WithLabelValues("error").Inc()
		w.logger.Warn("model reload failed, keeping previous model", "error", err)
		return
	}
	w.metrics.ModelReloads.WithLabelValues("success").Inc()
	w.metrics.ModelLoaded.Set(1)
	w.logger.Info("model reloaded", "model_path", w.handle.Path(), "trees", e.Trees(), "loaded_at", w.handle.LoadedAt())
}
