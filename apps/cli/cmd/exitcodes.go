package cmd

import "errors"

// Exit codes for restvars CLI
const (
	// ExitSuccess indicates the command succeeded
	ExitSuccess = 0

	// ExitUnresolved indicates placeholders were left unresolved in strict mode
	ExitUnresolved = 1

	// ExitParseError indicates a workspace, environment or response could not be parsed
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitStoreError indicates the token store could not be opened or written
	ExitStoreError = 4

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCode returns the code attached to err, or 1.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
