// Package validate performs pre-submission form validation. Failures here
// never reach the network; they surface inline per field. The rules mirror
// the server's validators so a passing form rarely bounces with a 422.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/pkg/models"
)

var (
	emailRe   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	letterRe  = regexp.MustCompile(`[A-Za-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// Login checks the login form.
func Login(username, password string) []errors.FieldError {
	var fields []errors.FieldError
	if strings.TrimSpace(username) == "" {
		fields = append(fields, errors.FieldError{Field: "username", Message: "Username is required"})
	}
	if password == "" {
		fields = append(fields, errors.FieldError{Field: "password", Message: "Password is required"})
	}
	return fields
}

// Register checks the registration form.
func Register(req models.CreateUserRequest) []errors.FieldError {
	var fields []errors.FieldError
	if len(strings.TrimSpace(req.Username)) < 3 {
		fields = append(fields, errors.FieldError{Field: "username", Message: "Username must be at least 3 characters"})
	}
	if !emailRe.MatchString(req.Email) {
		fields = append(fields, errors.FieldError{Field: "email", Message: "Invalid email address"})
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fields = append(fields, errors.FieldError{Field: "first_name", Message: "First name is required"})
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields = append(fields, errors.FieldError{Field: "last_name", Message: "Last name is required"})
	}
	fields = append(fields, password("password", req.Password)...)
	return fields
}

// Todo checks a task draft. Priority must sit within 1..5; the stores trust
// this boundary and do not re-validate.
func Todo(req models.CreateTodoRequest) []errors.FieldError {
	var fields []errors.FieldError
	if len(strings.TrimSpace(req.Title)) < 3 {
		fields = append(fields, errors.FieldError{Field: "title", Message: "Title must be at least 3 characters"})
	}
	desc := strings.TrimSpace(req.Description)
	if len(desc) < 3 {
		fields = append(fields, errors.FieldError{Field: "description", Message: "Description must be at least 3 characters"})
	} else if len(desc) > 100 {
		fields = append(fields, errors.FieldError{Field: "description", Message: "Max 100 characters"})
	}
	if req.Priority < 1 || req.Priority > 5 {
		fields = append(fields, errors.FieldError{Field: "priority", Message: "Priority must be between 1 and 5"})
	}
	return fields
}

// ChangePassword checks a password rotation form.
func ChangePassword(oldPassword, newPassword, confirm string) []errors.FieldError {
	var fields []errors.FieldError
	if oldPassword == "" {
		fields = append(fields, errors.FieldError{Field: "old_password", Message: "Old password is required"})
	}
	fields = append(fields, password("new_password", newPassword)...)
	if confirm != newPassword {
		fields = append(fields, errors.FieldError{Field: "confirm_password", Message: "Passwords do not match"})
	}
	if oldPassword != "" && oldPassword == newPassword {
		fields = append(fields, errors.FieldError{Field: "new_password", Message: "New password must be different from the old password"})
	}
	return fields
}

// password applies the server's complexity rules to the named field.
func password(field, value string) []errors.FieldError {
	var fields []errors.FieldError
	if len(value) < 8 {
		fields = append(fields, errors.FieldError{Field: field, Message: "Password must be at least 8 characters"})
	}
	if !letterRe.MatchString(value) {
		fields = append(fields, errors.FieldError{Field: field, Message: "Include at least one letter"})
	}
	if !digitRe.MatchString(value) {
		fields = append(fields, errors.FieldError{Field: field, Message: "Must contain at least one number"})
	}
	if !specialRe.MatchString(value) {
		fields = append(fields, errors.FieldError{Field: field, Message: "Include at least one special character"})
	}
	return fields
}

// Error converts field errors into a single validation APIError, or nil
// when the form is clean.
func Error(fields []errors.FieldError) error {
	if len(fields) == 0 {
		return nil
	}
	return errors.Validation(fields)
}

// Format renders field errors for plain-terminal output.
func Format(fields []errors.FieldError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return strings.Join(parts, "\n")
}
