// ABOUTME: Credential file change watcher built on fsnotify
// ABOUTME: Invalidates the store's cached record on external modification

package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes the credential file for external changes. Its only effect
// is the onChange callback (cache invalidation); it never fetches or mutates
// credentials itself.
type Watcher struct {
	path     string
	onChange func()
	fw       *fsnotify.Watcher
	stopOnce sync.Once
}

func New(path string, onChange func()) *Watcher {
	return &Watcher{path: filepath.Clean(path), onChange: onChange}
}

// Start begins observing the credential file's parent directory. Watching
// the directory rather than the file keeps atomic rename-replace writes
// visible. Callers treat a returned error as degraded mode, not fatal: the
// store simply reads fresh on every request.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.fw = fw
	go w.loop()
	slog.Info("Watching credential file for changes", "path", w.path)
	return nil
}

func (w *Watcher) loop() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				slog.Debug("Credential file changed", "op", ev.Op.String())
				w.onChange()
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("Credential watcher error", "error", err)
		}
	}
}

// Stop releases the underlying OS watch resource. Idempotent.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.fw != nil {
			w.fw.Close()
		}
	})
}
