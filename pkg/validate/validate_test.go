package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/pkg/models"
)

func fieldNames(fields []errors.FieldError) []string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	return names
}

func TestLogin(t *testing.T) {
	t.Run("valid form passes", func(t *testing.T) {
		require.Empty(t, Login("jane", "whatever"))
	})

	t.Run("missing fields are reported", func(t *testing.T) {
		fields := Login("  ", "")
		assert.ElementsMatch(t, []string{"username", "password"}, fieldNames(fields))
	})
}

func TestRegister(t *testing.T) {
	valid := models.CreateUserRequest{
		Username:  "jane",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "s3cret!pw",
	}

	t.Run("valid form passes", func(t *testing.T) {
		require.Empty(t, Register(valid))
	})

	t.Run("short username", func(t *testing.T) {
		req := valid
		req.Username = "jo"
		fields := Register(req)
		assert.Contains(t, fieldNames(fields), "username")
	})

	t.Run("malformed email", func(t *testing.T) {
		req := valid
		req.Email = "not-an-email"
		fields := Register(req)
		assert.Contains(t, fieldNames(fields), "email")
	})

	t.Run("weak password reports each missing class", func(t *testing.T) {
		req := valid
		req.Password = "short"
		fields := Register(req)

		var messages []string
		for _, f := range fields {
			require.Equal(t, "password", f.Field)
			messages = append(messages, f.Message)
		}
		// Too short, no digit, no special character.
		assert.Len(t, messages, 3)
	})
}

func TestTodo(t *testing.T) {
	valid := models.CreateTodoRequest{
		Title:       "Water the plants",
		Description: "Both pots on the balcony",
		Priority:    3,
	}

	t.Run("valid draft passes", func(t *testing.T) {
		require.Empty(t, Todo(valid))
	})

	t.Run("short title", func(t *testing.T) {
		req := valid
		req.Title = "ab"
		assert.Contains(t, fieldNames(Todo(req)), "title")
	})

	t.Run("description bounds", func(t *testing.T) {
		req := valid
		req.Description = "ab"
		assert.Contains(t, fieldNames(Todo(req)), "description")

		req.Description = strings.Repeat("x", 101)
		assert.Contains(t, fieldNames(Todo(req)), "description")

		req.Description = strings.Repeat("x", 100)
		assert.NotContains(t, fieldNames(Todo(req)), "description")
	})

	t.Run("priority bounds", func(t *testing.T) {
		for _, p := range []int{0, 6, -1} {
			req := valid
			req.Priority = p
			assert.Contains(t, fieldNames(Todo(req)), "priority", "priority %d", p)
		}
		for p := 1; p <= 5; p++ {
			req := valid
			req.Priority = p
			assert.Empty(t, Todo(req), "priority %d", p)
		}
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("valid rotation passes", func(t *testing.T) {
		require.Empty(t, ChangePassword("old!pass1", "new!pass2", "new!pass2"))
	})

	t.Run("mismatched confirmation", func(t *testing.T) {
		fields := ChangePassword("old!pass1", "new!pass2", "different")
		assert.Contains(t, fieldNames(fields), "confirm_password")
	})

	t.Run("reusing the old password", func(t *testing.T) {
		fields := ChangePassword("same!pass1", "same!pass1", "same!pass1")
		assert.Contains(t, fieldNames(fields), "new_password")
	})
}

func TestError(t *testing.T) {
	t.Run("nil for a clean form", func(t *testing.T) {
		require.NoError(t, Error(nil))
	})

	t.Run("wraps fields in a validation error", func(t *testing.T) {
		err := Error([]errors.FieldError{{Field: "title", Message: "too short"}})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
		assert.Len(t, errors.GetFields(err), 1)
	})
}

func TestFormat(t *testing.T) {
	out := Format([]errors.FieldError{
		{Field: "title", Message: "too short"},
		{Field: "priority", Message: "out of range"},
	})
	assert.Equal(t, "title: too short\npriority: out of range", out)
}
