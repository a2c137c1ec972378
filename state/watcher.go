package state

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskwell/core/logging"
)

// Watcher observes the state file so long-running consumers (the TUI
// dashboard) notice when another process clears the token, e.g. a logout
// issued from a second terminal. fsnotify can't watch a file that doesn't
// exist yet, so the parent directory is watched instead.
type Watcher struct {
	store      *Watched
	watcher    *fsnotify.Watcher
	debounce   time.Duration
	lastChange time.Time
	mu         sync.Mutex
}

// Watched pairs a Store with the callback fired when the token disappears.
type Watched struct {
	Store          *Store
	OnTokenCleared func()
}

// NewWatcher creates a watcher for the store's parent directory.
func NewWatcher(w Watched) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := fsw.Add(filepath.Dir(w.Store.Path())); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		store:    &w,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	log := logging.NewLogger("state-watcher")
	target := w.store.Store.Path()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.shouldProcess() {
				continue
			}
			token, err := w.store.Store.Token()
			if err != nil {
				log.WithError(err).Debug("could not re-read state file")
				continue
			}
			if token == "" && w.store.OnTokenCleared != nil {
				log.Debug("token cleared externally")
				w.store.OnTokenCleared()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Debug("state watch error")
		}
	}
}

// shouldProcess suppresses the burst of events a single save produces.
func (w *Watcher) shouldProcess() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := time.Now()
	if now.Sub(w.lastChange) < w.debounce {
		return false
	}
	w.lastChange = now
	return true
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
