package cli

import (
	"errors"
	"io"

	"github.com/robinvdvleuten/looker/index"
	"github.com/robinvdvleuten/looker/phrase"
)

// CommandError signals a command failure with a specific exit code.
// Commands return this after handling all output (printing errors/warnings to stderr).
// Main centralizes exit handling instead of commands calling os.Exit directly.
type CommandError struct {
	exitCode int
	err      error
}

// NewCommandError creates a new CommandError with the given exit code.
func NewCommandError(exitCode int) *CommandError {
	return &CommandError{exitCode: exitCode}
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return "command failed"
}

// Unwrap returns the error that caused the failure, if any.
func (e *CommandError) Unwrap() error {
	return e.err
}

// ExitCode returns the exit code associated with this error.
func (e *CommandError) ExitCode() int {
	return e.exitCode
}

// reportError prints the failures users are expected to run into as styled
// messages and turns them into a CommandError. Other errors are returned
// as they are.
func reportError(w io.Writer, err error) error {
	var mismatch *index.SchemaMismatchError

	switch {
	case err == nil:
		return nil

	case errors.Is(err, phrase.ErrEmptyQuery):
		printError(w, "nothing to search")

	case errors.As(err, &mismatch):
		printError(w, mismatch.Error())
		printInfof(w, "Rebuild the index with %s", pathStyle.Render("looker build"))

	case errors.Is(err, index.ErrNotFound):
		printError(w, err.Error())
		printInfof(w, "Create it with %s", pathStyle.Render("looker build"))

	default:
		return err
	}

	return &CommandError{exitCode: 1, err: err}
}
