package cmd

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/daobatch/internal/run"
)

// ExitError carries the process exit code for a failed command
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

// ExitCode maps a command error to the process exit code
func ExitCode(err error) int {
	if err == nil {
		return run.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return run.ExitFatal
}

func exitFor(summary *run.Summary, runErr error) error {
	switch code := summary.ExitCode(); code {
	case run.ExitOK:
		return nil
	case run.ExitFailures:
		return &ExitError{Code: code, Err: fmt.Errorf("%d of %d identifiers failed", summary.Counts.Failed, summary.Counts.Matched)}
	default:
		if runErr == nil {
			runErr = fmt.Errorf("run stopped (%s): %s", summary.FatalKind, summary.Fatal)
		}
		return &ExitError{Code: code, Err: runErr}
	}
}
