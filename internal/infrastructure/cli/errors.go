package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/felixgeelhaar/reqtrace/pkg/domain/trace"
)

// ErrDefectsFound signals a completed run whose result contains
// defects. Used by --check to fail the process.
var ErrDefectsFound = errors.New("trace defects found")

// CLIError wraps lower-level errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrDefectsFound):
		return NewCLIError(
			"traceability defects found",
			"Inspect the report or run 'reqtrace trace' without --check for details",
			err,
		)
	case errors.Is(err, trace.ErrInvariant):
		return NewCLIError(
			"internal consistency violation during linking",
			"This is a bug in reqtrace; please file an issue with the failing input",
			err,
		)
	case errors.Is(err, os.ErrNotExist):
		return NewCLIError(
			"file or directory not found",
			"Check the --dir flag and the directories in .reqtrace.yaml",
			err,
		)
	}

	return err
}
