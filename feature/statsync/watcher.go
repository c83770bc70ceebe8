package statsync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher triggers a pass when record files in a directory change.
// Bursts of events within the debounce window start a single pass.
type Watcher struct {
	runner   Runner
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

func NewWatcher(runner Runner, dir string, debounce time.Duration, logger *zap.Logger) *Watcher {
	return &Watcher{runner: runner, dir: dir, debounce: debounce, logger: logger}
}

// Run watches until ctx is done. It fails if the directory cannot be watched.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("Watching stats directory", zap.String("dir", w.dir), zap.Duration("debounce", w.debounce))

	var wg sync.WaitGroup
	defer wg.Wait()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !isRecordEvent(ev) {
				continue
			}
			timer.Reset(w.debounce)
			pending = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.trigger(ctx)
			}()
		}
	}
}

func (w *Watcher) trigger(ctx context.Context) {
	if _, err := w.runner.Run(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			w.logger.Debug("Change detected while a pass is running")
			return
		}
		w.logger.Warn("Triggered pass failed", zap.Error(err))
	}
}

func isRecordEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create | fsnotify.Write | fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Ext(ev.Name), ".json")
}
