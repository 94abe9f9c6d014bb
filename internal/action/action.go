package action

import (
	"context"
	"strings"

	"github.com/nerrad567/hostlink/internal/entity"
)

// Kind identifies the variant of an Action.
type Kind int

// Action variants.
const (
	// KindShell runs a command line when a button is pressed.
	KindShell Kind = iota

	// KindSwitch runs a command line with the requested on/off state substituted in.
	KindSwitch

	// KindCall invokes a D-Bus method with the requested state as its only argument.
	KindCall
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindShell:
		return "shell"
	case KindSwitch:
		return "switch"
	case KindCall:
		return "call"
	default:
		return "unknown"
	}
}

// statePlaceholder is replaced by "on" or "off" in switch command lines.
const statePlaceholder = "{state}"

// Call addresses a D-Bus method taking a single boolean.
type Call struct {
	Service   string
	Path      string
	Interface string
	Method    string
	System    bool
}

// Action is a descriptor of what to run for one entity.
// The execute function is chosen when the action is registered.
type Action struct {
	EntityID string
	Kind     Kind

	// Command is the command line for KindShell and KindSwitch.
	Command string

	// Call is the method target for KindCall.
	Call Call

	exec execFunc
}

// Result is the outcome of one execution.
type Result struct {
	Succeeded bool

	// NewState is "ON" or "OFF" after a successful switch or call action.
	NewState string

	Err error
}

type execFunc func(ctx context.Context, r *Registry, a *Action, payload string) Result

// execShell runs a button command. Only the press payload fires it.
func execShell(ctx context.Context, r *Registry, a *Action, payload string) Result {
	if payload != entity.PayloadPress {
		return invalidPayload(payload)
	}
	if err := r.runner.Run(ctx, a.Command); err != nil {
		return failed(err)
	}
	return Result{Succeeded: true}
}

// execSwitch runs a switch command with the requested state substituted in.
func execSwitch(ctx context.Context, r *Registry, a *Action, payload string) Result {
	on, ok := parseState(payload)
	if !ok {
		return invalidPayload(payload)
	}
	if err := r.runner.Run(ctx, switchCommand(a.Command, on)); err != nil {
		return failed(err)
	}
	return Result{Succeeded: true, NewState: payload}
}

// execCall invokes the D-Bus method with the requested state.
func execCall(ctx context.Context, r *Registry, a *Action, payload string) Result {
	on, ok := parseState(payload)
	if !ok {
		return invalidPayload(payload)
	}
	c := a.Call
	if err := r.caller.Call(ctx, c.System, c.Service, c.Path, c.Interface, c.Method, on); err != nil {
		return failed(err)
	}
	return Result{Succeeded: true, NewState: payload}
}

// parseState decodes the literal ON/OFF tokens.
func parseState(payload string) (on bool, ok bool) {
	switch payload {
	case entity.StateOn:
		return true, true
	case entity.StateOff:
		return false, true
	default:
		return false, false
	}
}

// switchCommand substitutes the state word into command, or appends it.
func switchCommand(command string, on bool) string {
	word := "off"
	if on {
		word = "on"
	}
	if strings.Contains(command, statePlaceholder) {
		return strings.ReplaceAll(command, statePlaceholder, word)
	}
	return command + " " + word
}
