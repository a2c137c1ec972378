// Package testutil provides shared test helpers, most importantly an
// in-memory fake of the Taskwell REST API backed by httptest.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/state"
)

// ValidToken is the bearer token the fake server accepts after login.
const ValidToken = "test-access-token"

// TestUser is the account the fake server knows about.
var TestUser = models.User{
	ID:        1,
	Email:     "jane@example.com",
	Username:  "jane",
	FirstName: "Jane",
	LastName:  "Doe",
	Role:      "user",
}

// TestPassword is TestUser's password on the fake server.
const TestPassword = "s3cret!pw"

// FakeServer is an in-memory Taskwell API. It mirrors the real server's
// routes and error bodies closely enough to exercise the client end to end.
type FakeServer struct {
	mu     sync.Mutex
	todos  map[int]models.Todo
	nextID int

	// FailTodos, when set, makes every /todo route answer with the given
	// status and detail instead of the normal behavior.
	FailTodos       int
	FailTodosDetail string

	// Revoked makes every protected route answer 401, simulating an
	// expired session.
	Revoked bool

	// Requests counts hits per method+path pattern, e.g. "PUT /todo/1".
	Requests map[string]int

	Server *httptest.Server
}

// NewFakeServer starts a fake API server. It is shut down automatically
// when the test ends.
func NewFakeServer(t *testing.T) *FakeServer {
	t.Helper()

	f := &FakeServer{
		todos:    make(map[int]models.Todo),
		nextID:   1,
		Requests: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the server's base URL.
func (f *FakeServer) URL() string {
	return f.Server.URL
}

// Seed inserts todos directly into the fake store and returns them with
// their assigned ids.
func (f *FakeServer) Seed(items ...models.Todo) []models.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Todo, 0, len(items))
	for _, item := range items {
		item.ID = f.nextID
		item.OwnerID = TestUser.ID
		f.nextID++
		f.todos[item.ID] = item
		out = append(out, item)
	}
	return out
}

// Replace swaps the fake store's contents wholesale, keeping ids.
func (f *FakeServer) Replace(items []models.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = make(map[int]models.Todo, len(items))
	for _, item := range items {
		f.todos[item.ID] = item
		if item.ID >= f.nextID {
			f.nextID = item.ID + 1
		}
	}
}

// Todos returns the fake store's current contents in id order.
func (f *FakeServer) Todos() []models.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Todo, 0, len(f.todos))
	for id := 1; id < f.nextID; id++ {
		if item, ok := f.todos[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

// RequestCount returns how many times "METHOD /path" was hit.
func (f *FakeServer) RequestCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Requests[key]
}

func (f *FakeServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.Requests[r.Method+" "+r.URL.Path]++
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/token":
		f.handleLogin(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/":
		f.handleRegister(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/auth/logout":
		f.requireAuth(w, r, func() {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
	case r.Method == http.MethodGet && r.URL.Path == "/user/get_user":
		f.requireAuth(w, r, func() {
			writeJSON(w, http.StatusOK, TestUser)
		})
	case r.Method == http.MethodPut && r.URL.Path == "/user/update_user":
		f.requireAuth(w, r, func() {
			f.handleUpdateUser(w, r)
		})
	case r.Method == http.MethodPatch && r.URL.Path == "/user/change_password":
		f.requireAuth(w, r, func() {
			w.WriteHeader(http.StatusOK)
		})
	case r.Method == http.MethodDelete && r.URL.Path == "/user/delete_account":
		f.requireAuth(w, r, func() {
			w.WriteHeader(http.StatusOK)
		})
	case r.Method == http.MethodGet && r.URL.Path == "/":
		f.requireAuth(w, r, func() {
			f.handleList(w)
		})
	case r.URL.Path == "/todo" || strings.HasPrefix(r.URL.Path, "/todo/"):
		f.requireAuth(w, r, func() {
			f.handleTodo(w, r)
		})
	default:
		writeDetail(w, http.StatusNotFound, "Not Found")
	}
}

func (f *FakeServer) requireAuth(w http.ResponseWriter, r *http.Request, next func()) {
	f.mu.Lock()
	revoked := f.Revoked
	f.mu.Unlock()

	auth := r.Header.Get("Authorization")
	if revoked || auth != "Bearer "+ValidToken {
		writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
		return
	}
	next()
}

func (f *FakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed form body")
		return
	}
	if r.PostFormValue("username") != TestUser.Username || r.PostFormValue("password") != TestPassword {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{
		AccessToken: ValidToken,
		TokenType:   "bearer",
	})
}

func (f *FakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	if req.Username == TestUser.Username {
		writeDetail(w, http.StatusConflict, "Username already taken")
		return
	}
	if len(req.Password) < 8 {
		writeValidation(w, "password", "String should have at least 8 characters")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (f *FakeServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "malformed body")
		return
	}
	user := TestUser
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.PhoneNumber != nil {
		user.PhoneNumber = req.PhoneNumber
	}
	writeJSON(w, http.StatusOK, user)
}

func (f *FakeServer) handleList(w http.ResponseWriter) {
	f.mu.Lock()
	fail, detail := f.FailTodos, f.FailTodosDetail
	f.mu.Unlock()
	if fail != 0 {
		writeDetail(w, fail, detail)
		return
	}
	writeJSON(w, http.StatusOK, f.Todos())
}

func (f *FakeServer) handleTodo(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	fail, detail := f.FailTodos, f.FailTodosDetail
	f.mu.Unlock()
	if fail != 0 {
		writeDetail(w, fail, detail)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/todo" {
		var req models.CreateTodoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "malformed body")
			return
		}
		if len(req.Title) < 3 {
			writeValidation(w, "title", "String should have at least 3 characters")
			return
		}
		f.mu.Lock()
		todo := models.Todo{
			ID:          f.nextID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
			Complete:    req.Complete,
			OwnerID:     TestUser.ID,
		}
		f.nextID++
		f.todos[todo.ID] = todo
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, todo)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/todo/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not Found")
		return
	}

	f.mu.Lock()
	todo, ok := f.todos[id]
	f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if !ok {
			writeDetail(w, http.StatusNotFound, "Todo not found")
			return
		}
		writeJSON(w, http.StatusOK, todo)

	case http.MethodPut:
		if !ok {
			writeDetail(w, http.StatusNotFound, "Todo not found")
			return
		}
		var req models.UpdateTodoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "malformed body")
			return
		}
		f.mu.Lock()
		f.todos[id] = models.ApplyUpdate(todo, req)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		if !ok {
			writeDetail(w, http.StatusNotFound, "Todo not found")
			return
		}
		f.mu.Lock()
		delete(f.todos, id)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	default:
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail mirrors the real server's {"detail": "..."} error body.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeValidation mirrors the real server's 422 body: a detail array of
// {loc, msg} entries.
func writeValidation(w http.ResponseWriter, field, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"detail": []map[string]interface{}{
			{"loc": []interface{}{"body", field}, "msg": msg},
		},
	})
}

// TempStateStore creates a state store backed by a file in a fresh temp
// directory.
func TempStateStore(t *testing.T) *state.Store {
	t.Helper()
	return state.NewStore(filepath.Join(t.TempDir(), "state.yml"))
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements api.TokenSource.
func (s StaticToken) Token() (string, error) { return string(s), nil }

// RequireTodoTitles asserts the titles of items in order.
func RequireTodoTitles(t *testing.T, items []models.Todo, titles ...string) {
	t.Helper()
	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.Title)
	}
	require.Equal(t, titles, got, fmt.Sprintf("expected titles %v", titles))
}
