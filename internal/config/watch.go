package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/muurk/devgrid/internal/grid"
	"github.com/muurk/devgrid/internal/logging"
)

// DefaultReloadDelay is the quiet period after the last file event before
// the config is reloaded
const DefaultReloadDelay = 200 * time.Millisecond

// Watch reloads the registry at path whenever the file changes and passes
// the result to onChange. Editors and Save replace the file by rename, so
// the parent directory is watched and events are filtered by file name.
// Bursts of events are coalesced. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, delay time.Duration, onChange func(*Registry, error)) error {
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	reload := grid.NewDebouncer(delay, func(string) {
		reg, err := LoadFrom(path)
		logging.LogConfigReload(path, err)
		onChange(reg, err)
	})
	defer reload.Stop()

	name := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				logging.Debug("Config file event",
					zap.String("path", event.Name),
					zap.String("op", event.Op.String()),
				)
				reload.Trigger(path)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Config watcher error", zap.Error(err))
		}
	}
}
