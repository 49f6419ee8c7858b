package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-formbuilder/internal/logging"
	"github.com/goliatone/go-formbuilder/pkg/fields"
)

// DefaultDebounce is how long Watch waits for more changes before reloading.
const DefaultDebounce = 250 * time.Millisecond

// Watch reloads dir whenever a definition file in it changes and hands the
// fresh set to onChange. Bursts of events are debounced. A reload that fails
// is logged and the previous set stays in effect. Watch blocks until ctx is
// cancelled.
func Watch(ctx context.Context, dir string, registry *fields.Registry, debounce time.Duration, onChange func(*Set)) error {
	if onChange == nil {
		return fmt.Errorf("loader: onChange is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("loader: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("loader: watch %s: %w", dir, err)
	}

	logger := logging.FromContext(ctx).With("dir", dir)
	logger.Info("watching form definitions", "debounce", debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !IsDefinitionFile(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("definition changed", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		case <-fire:
			fire = nil
			set, err := LoadDir(dir, registry)
			if err != nil {
				logger.Warn("reload failed, keeping previous forms", "error", err)
				continue
			}
			logger.Info("form definitions reloaded", "forms", len(set.Forms))
			onChange(set)
		}
	}
}
