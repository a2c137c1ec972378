// Package todos owns the task collection and all mutating operations over
// it. Edits to existing items are applied optimistically with a rollback
// path; id-generating and irreversible operations (create, delete) confirm
// with the server first. That asymmetry is deliberate: rollback complexity
// buys nothing for operations that cannot be locally undone.
package todos

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/logging"
	"github.com/taskwell/core/pkg/api"
	"github.com/taskwell/core/pkg/events"
	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/notify"
)

// LoadStatus tracks the full-refresh lifecycle.
type LoadStatus int

const (
	StatusIdle LoadStatus = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// Options wires a Store to its collaborators.
type Options struct {
	Client   *api.Client
	Notifier *notify.Queue
	// Background runs the reconciling fetch triggered by create/update. It
	// is fire-and-forget relative to the triggering operation. Defaults to
	// a goroutine; tests inject a synchronous runner.
	Background func(fn func())
}

// Store holds the task collection. Items keep server response order; any
// presentation-layer sorting happens on snapshots, never in place.
type Store struct {
	mu         sync.Mutex
	items      []models.Todo
	loadStatus LoadStatus
	lastError  string

	client     *api.Client
	notifier   *notify.Queue
	background func(fn func())
	changes    *events.Bus
	log        *logrus.Entry
}

// NewStore creates a todo list store. Construct one per process after a
// session exists; the store itself does not check authentication.
func NewStore(opts Options) *Store {
	background := opts.Background
	if background == nil {
		background = func(fn func()) { go fn() }
	}
	return &Store{
		loadStatus: StatusIdle,
		client:     opts.Client,
		notifier:   opts.Notifier,
		background: background,
		changes:    events.NewBus(),
		log:        logging.NewLogger("todos"),
	}
}

// Items returns a snapshot of the collection in server order.
func (s *Store) Items() []models.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Todo, len(s.items))
	copy(out, s.items)
	return out
}

// LoadStatus returns the current full-refresh status.
func (s *Store) LoadStatus() LoadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStatus
}

// LastError returns the message recorded by the last failed FetchAll.
func (s *Store) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Subscribe registers fn to run after every state change. Returns an
// unsubscribe function.
func (s *Store) Subscribe(fn func()) func() {
	return s.changes.Subscribe(fn)
}

// FetchAll replaces the collection wholesale with the server's state. On
// failure the previous items are kept: stale-but-present data beats a
// blanked list.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.loadStatus = StatusLoading
	s.lastError = ""
	s.mu.Unlock()
	s.changes.Publish()

	items, err := s.client.ListTodos(ctx)

	s.mu.Lock()
	if err != nil {
		s.loadStatus = StatusFailed
		s.lastError = errors.Message(err)
		s.mu.Unlock()
		s.changes.Publish()
		return err
	}
	s.items = items
	s.loadStatus = StatusLoaded
	s.mu.Unlock()
	s.changes.Publish()
	return nil
}

// Create sends a draft to the server. There is no optimistic insert: the
// server assigns the id every later operation needs. On success a full
// refresh reconciles the collection in the background.
func (s *Store) Create(ctx context.Context, draft models.CreateTodoRequest) bool {
	if err := s.client.CreateTodo(ctx, draft); err != nil {
		s.notifier.Error(errors.Message(err))
		return false
	}

	s.notifier.Success("Task created")
	s.reconcile(ctx)
	return true
}

// Update optimistically merges patch into the matching item before the
// network call resolves. On failure the exact pre-mutation snapshot is
// restored. On success a background refresh picks up server-side derived
// fields; its result may silently overwrite the optimistic value.
func (s *Store) Update(ctx context.Context, id int, patch models.UpdateTodoRequest) bool {
	snapshot, found := s.applyOptimistic(id, patch)
	if !found {
		s.log.WithField("id", id).Warn("update for unknown item id")
	}

	if err := s.client.UpdateTodo(ctx, id, patch); err != nil {
		s.restore(snapshot)
		s.notifier.Error(errors.Message(err))
		return false
	}

	s.notifier.Success("Task updated")
	s.reconcile(ctx)
	return true
}

// Delete confirms with the server before touching local state. Deletion is
// irreversible server-side, so a moment of UI lag is preferred over a
// ghost-revival flicker on failure.
func (s *Store) Delete(ctx context.Context, id int) bool {
	if err := s.client.DeleteTodo(ctx, id); err != nil {
		s.notifier.Error(errors.Message(err))
		return false
	}

	s.mu.Lock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	s.changes.Publish()

	s.notifier.Success("Task deleted")
	return true
}

// ToggleComplete optimistically flips the complete flag, sent as a full
// update with the flag inverted. No success notification: toggling is high
// frequency and the flipped checkbox is feedback enough. Errors still
// notify and roll back.
func (s *Store) ToggleComplete(ctx context.Context, todo models.Todo) bool {
	patch := models.UpdateRequestFromTodo(todo)
	patch.Complete = !todo.Complete

	snapshot, _ := s.applyOptimistic(todo.ID, patch)

	if err := s.client.UpdateTodo(ctx, todo.ID, patch); err != nil {
		s.restore(snapshot)
		s.notifier.Error(errors.Message(err))
		return false
	}
	return true
}

// applyOptimistic snapshots the collection and merges patch into the item
// with the given id. The returned snapshot feeds restore on failure.
func (s *Store) applyOptimistic(id int, patch models.UpdateTodoRequest) ([]models.Todo, bool) {
	s.mu.Lock()
	snapshot := make([]models.Todo, len(s.items))
	copy(snapshot, s.items)

	found := false
	for i, item := range s.items {
		if item.ID == id {
			s.items[i] = models.ApplyUpdate(item, patch)
			found = true
			break
		}
	}
	s.mu.Unlock()
	s.changes.Publish()
	return snapshot, found
}

// restore puts back the pre-mutation snapshot.
func (s *Store) restore(snapshot []models.Todo) {
	s.mu.Lock()
	s.items = snapshot
	s.mu.Unlock()
	s.changes.Publish()
}

// reconcile runs a fire-and-forget FetchAll. The triggering operation's
// outcome never waits on it.
func (s *Store) reconcile(ctx context.Context) {
	s.background(func() {
		if err := s.FetchAll(ctx); err != nil {
			s.log.WithError(err).Debug("reconciling fetch failed")
		}
	})
}
