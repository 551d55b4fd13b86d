package watcher

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"wavscribe/internal/logger"
)

// New creates a Watcher over the raw_audio tree. Every existing
// subdirectory is watched; directories created later are added as they
// appear.
func New(rawRoot string, extensions []string, debounce time.Duration, run RunFunc, log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	err = filepath.WalkDir(rawRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch paths: %w", err)
	}

	if debounce <= 0 {
		debounce = 2 * time.Second
	}

	return &implWatcher{
		rawRoot:    rawRoot,
		extensions: extensions,
		debounce:   debounce,
		run:        run,
		logger:     log,
		watcher:    fsw,
	}, nil
}
