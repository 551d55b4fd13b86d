// Package watcher keeps the pipeline running against a project directory,
// re-running the whole batch when new media lands in raw_audio.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"wavscribe/internal/logger"
)

type implWatcher struct {
	rawRoot    string
	extensions []string
	debounce   time.Duration
	run        RunFunc
	logger     logger.Logger
	watcher    *fsnotify.Watcher
}

// Start blocks, monitoring raw_audio until the context is cancelled. New
// media triggers one pipeline run after a quiet period, so a burst of
// copied files becomes a single batch. Runs are sequential; events during
// a run queue up and coalesce into the next one.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "Watching %s (debounce %s)", w.rawRoot, w.debounce)

	var pending *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug(ctx, "Change detected: %s", event.Name)
			if pending == nil {
				pending = time.NewTimer(w.debounce)
				fire = pending.C
			} else {
				pending.Reset(w.debounce)
			}

		case <-fire:
			pending = nil
			fire = nil
			if err := w.run(ctx); err != nil {
				w.logger.Error(ctx, "Pipeline run failed: %v", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the underlying file watcher.
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

// relevant filters events down to new or rewritten media files, and hooks
// newly created directories into the watch set on the way.
func (w *implWatcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}

	if event.Op&fsnotify.Create != 0 {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			_ = w.watcher.Add(event.Name)
			// A moved-in directory can carry media the walk never saw.
			return true
		}
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	for _, allowed := range w.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
