package action

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// defaultTimeout bounds an execution when the registry is built without one.
const defaultTimeout = 30 * time.Second

// Runner executes a shell command line.
type Runner interface {
	Run(ctx context.Context, command string) error
}

// Caller invokes a D-Bus method with a single boolean argument.
type Caller interface {
	Call(ctx context.Context, system bool, service, path, iface, method string, arg bool) error
}

// Observer receives one sample per execution.
type Observer interface {
	ObserveAction(entityID, kind, outcome string, d time.Duration)
}

// Execution outcomes reported to the Observer.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
	OutcomeInvalid = "invalid_payload"
)

// Logger interface for optional logging support.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Registry maps entity ids to actions and executes them.
//
// Thread Safety:
//   - Registration happens at startup; Resolve and Execute are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]*Action

	runner   Runner
	caller   Caller
	timeout  time.Duration
	observer Observer
	logger   Logger
}

// NewRegistry creates an empty registry.
//
// Parameters:
//   - runner: Executes shell and switch commands
//   - caller: Executes D-Bus calls (may be nil when no call actions are registered)
//   - timeout: Upper bound for a single execution
func NewRegistry(runner Runner, caller Caller, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Registry{
		actions: make(map[string]*Action),
		runner:  runner,
		caller:  caller,
		timeout: timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// SetObserver sets the execution observer, typically the metrics collector.
func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

// RegisterShell registers a button command for entityID.
func (r *Registry) RegisterShell(entityID, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command for %s", ErrInvalidAction, entityID)
	}
	return r.add(&Action{EntityID: entityID, Kind: KindShell, Command: command, exec: execShell})
}

// RegisterSwitch registers a switch command for entityID.
// A "{state}" placeholder receives "on"/"off"; without one the word is appended.
func (r *Registry) RegisterSwitch(entityID, command string) error {
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("%w: empty command for %s", ErrInvalidAction, entityID)
	}
	return r.add(&Action{EntityID: entityID, Kind: KindSwitch, Command: command, exec: execSwitch})
}

// RegisterCall registers a D-Bus backed switch for entityID.
func (r *Registry) RegisterCall(entityID string, call Call) error {
	if call.Service == "" || call.Path == "" || call.Interface == "" || call.Method == "" {
		return fmt.Errorf("%w: incomplete call target for %s", ErrInvalidAction, entityID)
	}
	if r.caller == nil {
		return fmt.Errorf("%w: no D-Bus caller for %s", ErrInvalidAction, entityID)
	}
	return r.add(&Action{EntityID: entityID, Kind: KindCall, Call: call, exec: execCall})
}

func (r *Registry) add(a *Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[a.EntityID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, a.EntityID)
	}
	r.actions[a.EntityID] = a
	return nil
}

// Resolve returns the action registered for entityID.
//
// Returns:
//   - *Action: The registered descriptor
//   - error: ErrNotFound if nothing is registered
func (r *Registry) Resolve(entityID string) (*Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.actions[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, entityID)
	}
	return a, nil
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Execute runs a with the received payload, bounded by the registry timeout.
//
// The payload is trimmed of surrounding whitespace and matched case-sensitively.
// An unexpected payload yields ErrInvalidPayload and nothing runs. A timeout is
// a failure and is never retried.
func (r *Registry) Execute(ctx context.Context, a *Action, payload []byte) Result {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res := a.exec(ctx, r, a, strings.TrimSpace(string(payload)))
	elapsed := time.Since(start)

	outcome := OutcomeSuccess
	switch {
	case res.Succeeded:
	case errors.Is(res.Err, ErrInvalidPayload):
		outcome = OutcomeInvalid
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome = OutcomeTimeout
		res.Err = fmt.Errorf("%w after %v: %w", ErrTimeout, r.timeout, res.Err)
	default:
		outcome = OutcomeFailure
	}

	if r.observer != nil {
		r.observer.ObserveAction(a.EntityID, a.Kind.String(), outcome, elapsed)
	}

	if res.Succeeded {
		r.logger.Debug("action succeeded",
			"entity", a.EntityID,
			"kind", a.Kind.String(),
			"duration", elapsed,
		)
	} else {
		r.logger.Warn("action did not succeed",
			"entity", a.EntityID,
			"kind", a.Kind.String(),
			"outcome", outcome,
			"error", res.Err,
		)
	}

	return res
}

func invalidPayload(payload string) Result {
	return Result{Err: fmt.Errorf("%w: %q", ErrInvalidPayload, payload)}
}

func failed(err error) Result {
	return Result{Err: fmt.Errorf("%w: %w", ErrActionFailed, err)}
}
