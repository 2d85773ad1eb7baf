package cli

import (
	"errors"
	"fmt"

	clierrors "github.com/chachako/pretty-changelog/internal/errors"
)

// Exit codes for the pretty-changelog CLI.
// These codes support programmatic composition and CI/CD integration.
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates generation failed (template, history or output error)
	ExitFailure = 1

	// ExitOutOfSync indicates `check` found the changelog file outdated
	ExitOutOfSync = 2

	// ExitInvalidArguments indicates invalid arguments or configuration
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates the repository or an input file is missing
	ExitMissingDependencies = 4
)

// ExitError carries an exit code for a failure that was already reported.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// NewExitError returns an ExitError with code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	if cliErr := clierrors.AsCLIError(err); cliErr != nil {
		switch cliErr.Category {
		case clierrors.Argument, clierrors.Configuration:
			return ExitInvalidArguments
		case clierrors.Prerequisite:
			return ExitMissingDependencies
		}
	}
	return ExitFailure
}
