package todos_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/core/pkg/api"
	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/notify"
	"github.com/taskwell/core/pkg/todos"
	"github.com/taskwell/core/testutil"
)

// deferredRunner queues background work so tests control when the
// reconciling fetch happens relative to other server activity.
type deferredRunner struct {
	pending []func()
}

func (r *deferredRunner) run(fn func()) {
	r.pending = append(r.pending, fn)
}

func (r *deferredRunner) drain() {
	for len(r.pending) > 0 {
		fn := r.pending[0]
		r.pending = r.pending[1:]
		fn()
	}
}

type harness struct {
	server   *testutil.FakeServer
	notifier *notify.Queue
	runner   *deferredRunner
	store    *todos.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		server:   testutil.NewFakeServer(t),
		notifier: notify.NewQueueWithOptions(notify.Options{StartTimer: func(time.Duration, func()) {}}),
		runner:   &deferredRunner{},
	}

	client, err := api.NewClient(api.Options{
		BaseURL:    h.server.URL(),
		AuthScheme: "bearer",
		Tokens:     testutil.StaticToken(testutil.ValidToken),
	})
	require.NoError(t, err)

	h.store = todos.NewStore(todos.Options{
		Client:     client,
		Notifier:   h.notifier,
		Background: h.runner.run,
	})
	return h
}

func (h *harness) messages() []string {
	var out []string
	for _, n := range h.notifier.Notifications() {
		out = append(out, n.Message)
	}
	return out
}

func (h *harness) errorMessages() []string {
	var out []string
	for _, n := range h.notifier.Notifications() {
		if n.Severity == notify.SeverityError {
			out = append(out, n.Message)
		}
	}
	return out
}

func seedTwo(h *harness) []models.Todo {
	return h.server.Seed(
		models.Todo{Title: "Buy milk", Description: "Semi-skimmed", Priority: 2},
		models.Todo{Title: "Walk dog", Description: "Around the block", Priority: 1, Complete: true},
	)
}

func TestFetchAll(t *testing.T) {
	t.Run("replaces the collection in server order", func(t *testing.T) {
		h := newHarness(t)
		seedTwo(h)

		require.NoError(t, h.store.FetchAll(context.Background()))
		assert.Equal(t, todos.StatusLoaded, h.store.LoadStatus())
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy milk", "Walk dog")
	})

	t.Run("failure keeps the previous items", func(t *testing.T) {
		h := newHarness(t)
		seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		h.server.FailTodos = http.StatusInternalServerError
		h.server.FailTodosDetail = "backend exploded"

		err := h.store.FetchAll(context.Background())
		require.Error(t, err)
		assert.Equal(t, todos.StatusFailed, h.store.LoadStatus())
		assert.Equal(t, "backend exploded", h.store.LastError())
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy milk", "Walk dog")
	})
}

func TestCreate(t *testing.T) {
	t.Run("confirms with the server before the item appears", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.FetchAll(context.Background()))

		ok := h.store.Create(context.Background(), models.CreateTodoRequest{
			Title:       "Water plants",
			Description: "Balcony pots",
			Priority:    3,
		})
		require.True(t, ok)

		// No optimistic insert: the item arrives via the reconciling fetch.
		assert.Empty(t, h.store.Items())
		h.runner.drain()
		testutil.RequireTodoTitles(t, h.store.Items(), "Water plants")

		assert.Equal(t, []string{"Task created"}, h.messages())
		assert.Equal(t, 1, h.server.RequestCount("POST /todo"))
		assert.Equal(t, 2, h.server.RequestCount("GET /"), "create must trigger a second list fetch")
	})

	t.Run("failure leaves the collection untouched", func(t *testing.T) {
		h := newHarness(t)
		seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		h.server.FailTodos = http.StatusInternalServerError
		h.server.FailTodosDetail = "backend exploded"

		ok := h.store.Create(context.Background(), models.CreateTodoRequest{
			Title:       "Doomed",
			Description: "Never lands",
			Priority:    3,
		})
		assert.False(t, ok)
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy milk", "Walk dog")
		assert.Equal(t, []string{"backend exploded"}, h.errorMessages())
		assert.Empty(t, h.runner.pending, "no reconcile after a failed create")
	})
}

func TestUpdate(t *testing.T) {
	t.Run("applies optimistically then reconciles", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		patch := models.UpdateRequestFromTodo(seeded[0])
		patch.Title = "Buy oat milk"

		ok := h.store.Update(context.Background(), seeded[0].ID, patch)
		require.True(t, ok)

		// The merge is visible before the reconcile runs.
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy oat milk", "Walk dog")
		assert.Contains(t, h.messages(), "Task updated")

		h.runner.drain()
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy oat milk", "Walk dog")
	})

	t.Run("reconcile result overwrites the optimistic value", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		patch := models.UpdateRequestFromTodo(seeded[0])
		patch.Title = "Buy oat milk"
		require.True(t, h.store.Update(context.Background(), seeded[0].ID, patch))

		// The server normalizes the title before the reconcile lands. Its
		// answer wins over the optimistic merge.
		serverItems := h.server.Todos()
		serverItems[0].Title = "BUY OAT MILK"
		h.server.Replace(serverItems)

		h.runner.drain()
		testutil.RequireTodoTitles(t, h.store.Items(), "BUY OAT MILK", "Walk dog")
	})

	t.Run("failure restores the exact snapshot", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))
		before := h.store.Items()

		h.server.FailTodos = http.StatusInternalServerError
		h.server.FailTodosDetail = "backend exploded"

		patch := models.UpdateRequestFromTodo(seeded[0])
		patch.Title = "Never sticks"
		ok := h.store.Update(context.Background(), seeded[0].ID, patch)

		assert.False(t, ok)
		assert.Equal(t, before, h.store.Items(), "rollback must restore the pre-mutation state exactly")
		assert.Equal(t, []string{"backend exploded"}, h.errorMessages())
		assert.Empty(t, h.runner.pending, "no reconcile after a failed update")
	})

	t.Run("unknown id still round-trips to the server", func(t *testing.T) {
		h := newHarness(t)
		seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		ok := h.store.Update(context.Background(), 999, models.UpdateTodoRequest{
			Title: "Ghost", Description: "No such item", Priority: 1,
		})
		assert.False(t, ok, "the server rejects the unknown id")
	})
}

func TestDelete(t *testing.T) {
	t.Run("confirms before removing locally", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		ok := h.store.Delete(context.Background(), seeded[0].ID)
		require.True(t, ok)
		testutil.RequireTodoTitles(t, h.store.Items(), "Walk dog")
		assert.Equal(t, []string{"Task deleted"}, h.messages())
	})

	t.Run("failure leaves the item in place", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		h.server.FailTodos = http.StatusInternalServerError
		h.server.FailTodosDetail = "backend exploded"

		ok := h.store.Delete(context.Background(), seeded[0].ID)
		assert.False(t, ok)
		testutil.RequireTodoTitles(t, h.store.Items(), "Buy milk", "Walk dog")
	})

	t.Run("a later fetch does not reintroduce the item", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		require.True(t, h.store.Delete(context.Background(), seeded[0].ID))
		require.NoError(t, h.store.FetchAll(context.Background()))
		testutil.RequireTodoTitles(t, h.store.Items(), "Walk dog")
	})
}

func TestToggleComplete(t *testing.T) {
	t.Run("flips optimistically with no success notification", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		ok := h.store.ToggleComplete(context.Background(), seeded[0])
		require.True(t, ok)

		items := h.store.Items()
		assert.True(t, items[0].Complete)
		assert.Empty(t, h.messages(), "toggling must stay quiet on success")
	})

	t.Run("offline toggle rolls back with exactly one error notification", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))
		before := h.store.Items()

		// Take the server away entirely.
		h.server.Server.Close()

		ok := h.store.ToggleComplete(context.Background(), seeded[0])
		assert.False(t, ok)
		assert.Equal(t, before, h.store.Items(), "rollback must restore the pre-toggle state exactly")

		errs := h.errorMessages()
		require.Len(t, errs, 1, "exactly one error notification")
		assert.Equal(t, "could not reach the server", errs[0])
	})

	t.Run("toggle back and forth", func(t *testing.T) {
		h := newHarness(t)
		seeded := seedTwo(h)
		require.NoError(t, h.store.FetchAll(context.Background()))

		require.True(t, h.store.ToggleComplete(context.Background(), seeded[1]))
		assert.False(t, h.store.Items()[1].Complete)

		current := h.store.Items()[1]
		require.True(t, h.store.ToggleComplete(context.Background(), current))
		assert.True(t, h.store.Items()[1].Complete)
	})
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t)
	seedTwo(h)

	changes := 0
	unsubscribe := h.store.Subscribe(func() { changes++ })

	require.NoError(t, h.store.FetchAll(context.Background()))
	assert.Equal(t, 2, changes, "loading and loaded both publish")

	unsubscribe()
	require.NoError(t, h.store.FetchAll(context.Background()))
	assert.Equal(t, 2, changes)
}

func TestItemsSnapshotIsolation(t *testing.T) {
	h := newHarness(t)
	seedTwo(h)
	require.NoError(t, h.store.FetchAll(context.Background()))

	snapshot := h.store.Items()
	snapshot[0].Title = "mutated"

	assert.Equal(t, "Buy milk", h.store.Items()[0].Title)
}
