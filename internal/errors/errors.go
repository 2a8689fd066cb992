// Package errors formats command failures for the terminal and exits.
package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/fieldlog/internal/logger"
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// WithExitCode wraps err so Fatal exits with code instead of 1.
func WithExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// ExitCode returns the code carried by err, 1 for any other error and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Fatal logs err, prints it to stderr and exits with ExitCode(err).
func Fatal(err error) {
	if err == nil {
		return
	}
	logger.Error("Command execution failed", "error", err)
	fmt.Fprintln(os.Stderr, Format(err))
	_ = logger.Close()
	os.Exit(ExitCode(err))
}
