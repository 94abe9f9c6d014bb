package action

import "errors"

// Domain-specific errors for action registration and execution.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotFound is returned when no action is registered for an entity.
	ErrNotFound = errors.New("action: not found")

	// ErrDuplicateAction is returned when an entity already has an action.
	ErrDuplicateAction = errors.New("action: already registered")

	// ErrInvalidAction is returned when an action descriptor is incomplete.
	ErrInvalidAction = errors.New("action: invalid descriptor")

	// ErrInvalidPayload is returned when a command payload does not decode.
	// Nothing is executed.
	ErrInvalidPayload = errors.New("action: invalid payload")

	// ErrActionFailed is returned when the command exits nonzero or the call fails.
	ErrActionFailed = errors.New("action: failed")

	// ErrTimeout is returned when an execution exceeds the registry timeout.
	ErrTimeout = errors.New("action: timed out")
)
