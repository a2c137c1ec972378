package errors

import (
	"fmt"
	"net/http"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *APIError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *APIError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NotLoggedIn creates an error for commands that require a session
func NotLoggedIn() *APIError {
	return New(ErrCodeNotLoggedIn, "not logged in")
}

// Network wraps a transport-level failure (DNS, refused connection, timeout)
func Network(err error) *APIError {
	return Wrap(err, ErrCodeNetwork, "could not reach the server")
}

// Validation creates a validation error carrying field-level entries
func Validation(fields []FieldError) *APIError {
	msg := "validation failed"
	if len(fields) > 0 {
		msg = fmt.Sprintf("%s: %s", fields[0].Field, fields[0].Message)
	}
	e := New(ErrCodeValidation, msg)
	e.Fields = fields
	return e
}

// FromStatus maps an HTTP status to the matching error code. The message is
// the server's human-readable detail when one was present in the body.
func FromStatus(status int, message string) *APIError {
	if message == "" {
		message = http.StatusText(status)
	}

	var code ErrorCode
	switch {
	case status == http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case status == http.StatusForbidden:
		code = ErrCodeForbidden
	case status == http.StatusNotFound:
		code = ErrCodeNotFound
	case status == http.StatusConflict:
		code = ErrCodeConflict
	case status == http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	case status >= 500:
		code = ErrCodeServer
	default:
		code = ErrCodeServer
	}

	return New(code, message).WithStatus(status)
}
