package host

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/justyntemme/plugkit/pkg/framework/state"
	"github.com/justyntemme/plugkit/pkg/plugin"
)

// DefaultDebounce collapses bursts of writes to a watched file.
const DefaultDebounce = 100 * time.Millisecond

// Watch calls fn with the contents of path each time it is written, after
// writes have been quiet for debounce. It blocks until ctx is done or the
// watcher fails. Read errors are logged and skipped.
func Watch(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, fn func([]byte)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors replace files on save, so the directory is watched.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	name := filepath.Base(path)

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(debounce)

		case <-timer.C:
			data, err := os.ReadFile(path)
			if err != nil {
				log.Warn("read watched file", zap.String("path", path), zap.Error(err))
				continue
			}
			fn(data)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
}

// ApplyLive applies the parameter values of a saved session to a running
// plugin through its event queue, so a playing instance ramps to them
// without a restart. Extra state is not applied.
func ApplyLive(w *plugin.Wrapper, data []byte) (state.LoadReport, error) {
	doc, rep := state.Unmarshal(data, state.Detect(data))
	info := w.Info()
	if doc.Plugin != "" && doc.Plugin != info.ID {
		return rep, fmt.Errorf("session belongs to %q, not %q", doc.Plugin, info.ID)
	}
	for key, v := range doc.Values() {
		if math.IsNaN(v) || v < 0 || v > 1 {
			rep.Invalid = append(rep.Invalid, key)
			continue
		}
		err := w.SetParameter(key, v)
		switch {
		case errors.Is(err, plugin.ErrUnknownParameter):
			rep.Unknown = append(rep.Unknown, key)
		case err != nil:
			return rep, err
		default:
			rep.Applied++
		}
	}
	return rep, rep.Err()
}
