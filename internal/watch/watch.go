// Package watch tracks the import closure of open documents on disk.
// Imported files can change outside the editor; a write event hands the
// changed path to the callback so the session can drop its memoized
// resolution.
package watch

import (
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/tliron/commonlog"
)

type Watcher struct {
	log     commonlog.Logger
	fsw     *fsnotify.Watcher
	onWrite func(path string)

	mu      sync.Mutex
	watched map[string]bool
	stop    chan struct{}
	started chan struct{}
	done    chan struct{}
}

func New(onWrite func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	return &Watcher{
		log:     commonlog.GetLogger("alembic.watch"),
		fsw:     fsw,
		onWrite: onWrite,
		watched: make(map[string]bool),
		stop:    make(chan struct{}),
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Watch reconciles the watched set against the given paths: new paths are
// added, paths no longer in the set are dropped.
func (w *Watcher) Watch(paths []string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next := make(map[string]bool, len(paths))
	for _, p := range paths {
		next[p] = true
		if !w.watched[p] {
			if err := w.fsw.Add(p); err != nil {
				w.log.Warningf("watch %s: %v", p, err)
				continue
			}
		}
	}
	for p := range w.watched {
		if !next[p] {
			_ = w.fsw.Remove(p)
		}
	}
	w.watched = next
}

// Run consumes filesystem events until Close. Call it once, in its own
// goroutine.
func (w *Watcher) Run() {
	close(w.started)
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				w.log.Debugf("changed on disk: %s", event.Name)
				w.onWrite(event.Name)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warningf("watch error: %v", err)
		case <-w.stop:
			return
		}
	}
}

// Close stops the event loop. Safe to call even if Run was never started.
func (w *Watcher) Close() error {
	close(w.stop)
	err := w.fsw.Close()
	select {
	case <-w.started:
		<-w.done
	default:
	}
	return err
}
