package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	t.Run("error string includes code and message", func(t *testing.T) {
		err := New(ErrCodeNotFound, "todo not found")
		assert.Equal(t, "NOT_FOUND: todo not found", err.Error())
	})

	t.Run("wrapped cause surfaces in the string and unwraps", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := Wrap(cause, ErrCodeNetwork, "could not reach the server")
		assert.Contains(t, err.Error(), "connection refused")
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("builders chain", func(t *testing.T) {
		err := New(ErrCodeValidation, "validation failed").
			WithStatus(422).
			WithField("title", "too short").
			WithDetail("endpoint", "/todo")

		assert.Equal(t, 422, err.Status)
		require.Len(t, err.Fields, 1)
		assert.Equal(t, "title", err.Fields[0].Field)
		assert.Equal(t, "/todo", err.Details["endpoint"])
	})
}

func TestGetCode(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		assert.Equal(t, ErrCodeUnauthorized, GetCode(New(ErrCodeUnauthorized, "nope")))
	})

	t.Run("through a wrapping error", func(t *testing.T) {
		inner := New(ErrCodeNotFound, "gone")
		outer := fmt.Errorf("fetching: %w", inner)
		assert.Equal(t, ErrCodeNotFound, GetCode(outer))
	})

	t.Run("plain errors have no code", func(t *testing.T) {
		assert.Equal(t, ErrorCode(""), GetCode(fmt.Errorf("plain")))
		assert.Equal(t, ErrorCode(""), GetCode(nil))
	})
}

func TestIs(t *testing.T) {
	err := NotLoggedIn()
	assert.True(t, Is(err, ErrCodeNotLoggedIn))
	assert.False(t, Is(err, ErrCodeNetwork))
	assert.False(t, Is(nil, ErrCodeNetwork))
}

func TestMessage(t *testing.T) {
	t.Run("api error message is used verbatim", func(t *testing.T) {
		assert.Equal(t, "Incorrect username or password",
			Message(New(ErrCodeUnauthorized, "Incorrect username or password")))
	})

	t.Run("raw errors fall back to a generic message", func(t *testing.T) {
		assert.Equal(t, "An unexpected error occurred", Message(fmt.Errorf("dial tcp: timeout")))
	})

	t.Run("wrapped api errors are found", func(t *testing.T) {
		inner := New(ErrCodeServer, "backend exploded")
		outer := fmt.Errorf("listing: %w", inner)
		assert.Equal(t, "backend exploded", Message(outer))
	})

	t.Run("nil yields empty", func(t *testing.T) {
		assert.Equal(t, "", Message(nil))
	})
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		code   ErrorCode
	}{
		{http.StatusUnauthorized, ErrCodeUnauthorized},
		{http.StatusForbidden, ErrCodeForbidden},
		{http.StatusNotFound, ErrCodeNotFound},
		{http.StatusConflict, ErrCodeConflict},
		{http.StatusUnprocessableEntity, ErrCodeValidation},
		{http.StatusInternalServerError, ErrCodeServer},
		{http.StatusBadGateway, ErrCodeServer},
		{http.StatusTeapot, ErrCodeServer},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d", tc.status), func(t *testing.T) {
			err := FromStatus(tc.status, "")
			assert.Equal(t, tc.code, err.Code)
			assert.Equal(t, tc.status, err.Status)
			assert.Equal(t, http.StatusText(tc.status), err.Message)
		})
	}

	t.Run("server detail is preserved", func(t *testing.T) {
		err := FromStatus(http.StatusConflict, "Username already taken")
		assert.Equal(t, "Username already taken", err.Message)
	})
}

func TestValidation(t *testing.T) {
	t.Run("first field leads the message", func(t *testing.T) {
		err := Validation([]FieldError{
			{Field: "title", Message: "too short"},
			{Field: "priority", Message: "out of range"},
		})
		assert.Equal(t, "title: too short", err.Message)
		assert.Len(t, err.Fields, 2)
	})

	t.Run("empty fields still error", func(t *testing.T) {
		err := Validation(nil)
		assert.Equal(t, "validation failed", err.Message)
	})
}
