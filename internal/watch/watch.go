// Package watch reports changes to a single file. The parent directory is
// watched so atomic temp-file renames are seen as changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces bursts of events from one save.
const DefaultDebounce = 200 * time.Millisecond

// relevantOps are the operations that can change the file's content.
const relevantOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// Watcher watches one file.
type Watcher struct {
	fs       *fsnotify.Watcher
	name     string
	debounce time.Duration
	logger   *zap.Logger
}

// New starts watching path. A debounce of zero uses DefaultDebounce; a nil
// logger disables logging.
func New(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(path)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &Watcher{fs: fs, name: filepath.Base(path), debounce: debounce, logger: logger}, nil
}

// Run calls onChange after each debounced burst of changes until ctx is
// canceled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != w.name || ev.Op&relevantOps == 0 {
				continue
			}
			w.logger.Debug("file event", zap.String("name", ev.Name), zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		case <-timer.C:
			onChange()
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
