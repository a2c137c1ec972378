package cli

import (
	"fmt"
	"os"

	"github.com/taskwell/core/errors"
)

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
	}
}

// Handle provides user-friendly error messages based on error type
func (h *ErrorHandler) Handle(err error) error {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotLoggedIn, errors.ErrCodeUnauthorized:
		fmt.Fprintf(os.Stderr, "Not logged in. Run 'tw login' first.\n")
		return err

	case errors.ErrCodeValidation:
		fmt.Fprintln(os.Stderr, "Validation failed:")
		for _, f := range errors.GetFields(err) {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
		}
		if len(errors.GetFields(err)) == 0 {
			fmt.Fprintf(os.Stderr, "  %s\n", errors.Message(err))
		}
		return err

	case errors.ErrCodeNetwork:
		fmt.Fprintf(os.Stderr, "Could not reach the server. Check api_url in taskwell.yml.\n")
		return err

	case errors.ErrCodeConfigNotFound:
		fmt.Fprintf(os.Stderr, "Configuration not found. Create a taskwell.yml or set TASKWELL_API_URL.\n")
		return err

	case errors.ErrCodeNotFound:
		fmt.Fprintf(os.Stderr, "Not found: %s\n", errors.Message(err))
		return err

	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.Message(err))

		if h.Verbose {
			if apiErr, ok := err.(*errors.APIError); ok {
				fmt.Fprintf(os.Stderr, "\nError details:\n%s\n", apiErr.ToJSON())
			}
		}
		return err
	}
}
