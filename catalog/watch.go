package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceInterval is how long Watch waits after the last file event
// before reloading.
var DebounceInterval = 200 * time.Millisecond

// Watch reloads the catalog file into c whenever it is written or
// recreated, until ctx is cancelled. A file that fails to parse leaves the
// current table in place. The parent directory is watched so editors that
// save by rename are picked up.
func Watch(ctx context.Context, path string, c *Catalog, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving catalog path: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("watching catalog", zap.String("path", abs))

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending = time.After(DebounceInterval)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("catalog watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			next, err := LoadFile(abs)
			if err != nil {
				logger.Warn("catalog reload failed, keeping previous table", zap.Error(err))
				continue
			}
			c.Replace(next)
			logger.Info("catalog reloaded", zap.Int("variants", len(next.Names())))
		}
	}
}
