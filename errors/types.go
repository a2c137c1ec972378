package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Remote API errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeServer       ErrorCode = "SERVER_ERROR"

	// Transport errors
	ErrCodeNetwork ErrorCode = "NETWORK"

	// Local client errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
	ErrCodeNotLoggedIn    ErrorCode = "NOT_LOGGED_IN"
	ErrCodeInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// FieldError pins a validation message to a specific input field so a form
// layer can surface it inline instead of as a general notification.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError represents a structured error with context
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Status  int                    `json:"status,omitempty"`
	Message string                 `json:"message"`
	Fields  []FieldError           `json:"fields,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *APIError) Unwrap() error {
	return e.Cause
}

// WithStatus records the HTTP status the error came from
func (e *APIError) WithStatus(status int) *APIError {
	e.Status = status
	return e
}

// WithDetail adds a detail to the error
func (e *APIError) WithDetail(key string, value interface{}) *APIError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithField appends a field-level validation entry
func (e *APIError) WithField(field, message string) *APIError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// ToJSON converts the error to JSON
func (e *APIError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new APIError
func New(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an APIError
func Wrap(err error, code ErrorCode, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, unwrapping as needed
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return apiErr.Code
}

// GetFields extracts field-level validation entries from an error, if any
func GetFields(err error) []FieldError {
	if err == nil {
		return nil
	}

	apiErr, ok := err.(*APIError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetFields(unwrapper.Unwrap())
		}
		return nil
	}

	return apiErr.Fields
}

// Message returns the human-readable message for an error. For APIErrors the
// server-provided message is preferred; anything else falls back to a
// generic string so raw transport errors never reach the user verbatim.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := err.(*APIError); ok && apiErr.Message != "" {
		return apiErr.Message
	}
	if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
		if inner := unwrapper.Unwrap(); inner != nil {
			return Message(inner)
		}
	}
	return "An unexpected error occurred"
}
