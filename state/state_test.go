package state

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state.yml"))
}

func TestStoreLoad(t *testing.T) {
	t.Run("missing file yields empty state", func(t *testing.T) {
		s := newTestStore(t)
		st, err := s.Load()
		require.NoError(t, err)
		assert.Empty(t, st)
	})

	t.Run("round trip", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Save(State{"a": "1", "b": 2}))

		st, err := s.Load()
		require.NoError(t, err)
		assert.Equal(t, "1", st["a"])
		assert.Equal(t, 2, st["b"])
	})

	t.Run("corrupt file errors", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, os.WriteFile(s.Path(), []byte("{not yaml: ["), 0600))
		_, err := s.Load()
		assert.Error(t, err)
	})
}

func TestStoreSave(t *testing.T) {
	t.Run("creates missing parent directories", func(t *testing.T) {
		s := NewStore(filepath.Join(t.TempDir(), "deep", "nested", "state.yml"))
		require.NoError(t, s.Save(State{"k": "v"}))
		_, err := os.Stat(s.Path())
		assert.NoError(t, err)
	})

	t.Run("file is private", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("file modes are not meaningful on windows")
		}
		s := newTestStore(t)
		require.NoError(t, s.Save(State{"k": "v"}))

		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

func TestStoreGetSet(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("key", "value"))

	val, ok, err := s.Get("key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "value", val)

	str, err := s.GetString("key")
	require.NoError(t, err)
	assert.Equal(t, "value", str)

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := s.Get("missing")
		require.NoError(t, err)
		assert.False(t, ok)

		str, err := s.GetString("missing")
		require.NoError(t, err)
		assert.Equal(t, "", str)
	})

	t.Run("non-string value reads as empty string", func(t *testing.T) {
		require.NoError(t, s.Set("number", 42))
		str, err := s.GetString("number")
		require.NoError(t, err)
		assert.Equal(t, "", str)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Set("doomed", "x"))
		require.NoError(t, s.Delete("doomed"))
		_, ok, err := s.Get("doomed")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStoreToken(t *testing.T) {
	s := newTestStore(t)

	t.Run("empty before login", func(t *testing.T) {
		token, err := s.Token()
		require.NoError(t, err)
		assert.Equal(t, "", token)
	})

	t.Run("set and clear", func(t *testing.T) {
		require.NoError(t, s.SetToken("abc123"))
		token, err := s.Token()
		require.NoError(t, err)
		assert.Equal(t, "abc123", token)

		require.NoError(t, s.ClearToken())
		token, err = s.Token()
		require.NoError(t, err)
		assert.Equal(t, "", token)
	})

	t.Run("clearing preserves unrelated keys", func(t *testing.T) {
		require.NoError(t, s.Set("other", "kept"))
		require.NoError(t, s.SetToken("tok"))
		require.NoError(t, s.ClearToken())

		val, err := s.GetString("other")
		require.NoError(t, err)
		assert.Equal(t, "kept", val)
	})
}
