package handlers

import (
	"context"
	"errors"

	"github.com/imamik/facetctl/internal/launch"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitBogus     = 2
	ExitCancelled = 130
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// exitError classifies err. It returns nil for a nil err.
func exitError(err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: ExitCode(err), Err: err}
}

// ExitCode maps an error returned by a handler to a process exit code.
func ExitCode(err error) int {
	var (
		exitErr   *ExitError
		bogusErr  *launch.BogusStateError
		cancelErr *launch.CancellationError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.As(err, &bogusErr):
		return ExitBogus
	case errors.As(err, &cancelErr), errors.Is(err, context.Canceled):
		return ExitCancelled
	default:
		return ExitFailure
	}
}
