package trace

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher signals when a dump file is written to.
// It watches the parent directory so that a dump created after the
// watcher starts is still noticed.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching the dump at path.
func NewWatcher(path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving trace file path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating trace watcher: %w", err)
	}

	if err := fsWatcher.Add(filepath.Dir(abs)); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    filepath.Clean(abs),
		watcher: fsWatcher,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// Wake returns a channel that receives a value after the dump changes.
// Bursts of writes collapse into a single pending signal.
func (w *Watcher) Wake() <-chan struct{} {
	return w.wake
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				select {
				case w.wake <- struct{}{}:
				default:
				}
			}

		case _, ok := <-w.watcher.Errors:
			// Polling continues on its timer when events are lost.
			if !ok {
				return
			}
		}
	}
}
