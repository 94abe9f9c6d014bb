package process

import "errors"

// Errors returned by Runner.Run. Use errors.Is() to check for them.
var (
	// ErrStartFailed is returned when the shell cannot be started.
	ErrStartFailed = errors.New("process: start failed")

	// ErrNonZeroExit is returned when the command exits with a nonzero status.
	ErrNonZeroExit = errors.New("process: nonzero exit")

	// ErrTerminated is returned when the command was stopped because its context ended.
	ErrTerminated = errors.New("process: terminated")
)
