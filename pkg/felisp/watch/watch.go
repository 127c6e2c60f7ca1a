// Package watch re-runs a script whenever its file changes.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long rapid changes are ignored after one is handled
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors one file and calls a function when it changes
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onChange func(path string)
	stdout   io.Writer
	stderr   io.Writer

	// Debounce suppresses events arriving this soon after a handled one
	Debounce time.Duration

	mu         sync.Mutex
	lastChange time.Time
}

// New creates a watcher for path. The file's directory is watched so that
// editors that replace the file on save are still seen.
func New(path string, onChange func(path string), stdout, stderr io.Writer) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		watcher:  fsWatcher,
		path:     absPath,
		onChange: onChange,
		stdout:   stdout,
		stderr:   stderr,
		Debounce: DefaultDebounce,
	}, nil
}

// Run processes file system events until ctx is done or the watcher is
// closed
func (w *Watcher) Run(ctx context.Context) error {
	w.logInfo("watching %s", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			// Only handle write and create events on the watched file
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}

			// Debounce rapid changes
			w.mu.Lock()
			if time.Since(w.lastChange) < w.Debounce {
				w.mu.Unlock()
				continue
			}
			w.lastChange = time.Now()
			w.mu.Unlock()

			w.logInfo("changed: %s", w.path)
			w.onChange(w.path)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logError("watcher error: %v", err)
		}
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) logInfo(format string, args ...interface{}) {
	fmt.Fprintf(w.stdout, "[WATCH] "+format+"\n", args...)
}

func (w *Watcher) logError(format string, args ...interface{}) {
	fmt.Fprintf(w.stderr, "[WATCH ERROR] "+format+"\n", args...)
}
