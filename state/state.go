// Package state persists the small amount of client-side session state,
// most importantly the access token. The state file is the only persistent
// slot the session rides on: it is written exclusively by the session
// store's login/logout paths and read by the outbound HTTP layer.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/taskwell/core/pkg/paths"
)

// TokenKey is the state entry holding the bearer access token.
const TokenKey = "session.token"

// State represents the persisted client state as a generic map of
// key-value pairs.
type State map[string]interface{}

// Store reads and writes a state file at a fixed path. Tests point it at a
// temporary directory; production code uses DefaultStore.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStore returns the store backed by the standard state file
// location, typically ~/.taskwell/state.yml.
func DefaultStore() (*Store, error) {
	path := paths.StateFile()
	if path == "" {
		return nil, fmt.Errorf("resolve state directory")
	}
	return NewStore(path), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load loads the state from the state file.
// Returns an empty state if the file doesn't exist.
func (s *Store) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(State), nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}

	if state == nil {
		state = make(State)
	}

	return state, nil
}

// Save saves the state to the state file. The file is created with 0600
// since it holds the access token.
func (s *Store) Save(state State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	return nil
}

// Get retrieves a value from the state by key.
// Returns the value and true if found, nil and false otherwise.
func (s *Store) Get(key string) (interface{}, bool, error) {
	state, err := s.Load()
	if err != nil {
		return nil, false, err
	}

	val, ok := state[key]
	return val, ok, nil
}

// GetString is a convenience function to get a string value from state.
// Returns empty string if the key doesn't exist or the value is not a string.
func (s *Store) GetString(key string) (string, error) {
	val, ok, err := s.Get(key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", nil
	}

	return str, nil
}

// Set sets a value in the state.
func (s *Store) Set(key string, value interface{}) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	state[key] = value
	return s.Save(state)
}

// Delete removes a key from the state.
func (s *Store) Delete(key string) error {
	state, err := s.Load()
	if err != nil {
		return err
	}

	delete(state, key)
	return s.Save(state)
}

// Token returns the persisted access token, or "" when logged out.
func (s *Store) Token() (string, error) {
	return s.GetString(TokenKey)
}

// SetToken persists the access token.
func (s *Store) SetToken(token string) error {
	return s.Set(TokenKey, token)
}

// ClearToken removes the access token.
func (s *Store) ClearToken() error {
	return s.Delete(TokenKey)
}
