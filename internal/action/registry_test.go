package action

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeRunner records commands and returns a fixed error.
type fakeRunner struct {
	mu       sync.Mutex
	commands []string
	err      error
	block    bool
}

func (f *fakeRunner) Run(ctx context.Context, command string) error {
	f.mu.Lock()
	f.commands = append(f.commands, command)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeRunner) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

type fakeCaller struct {
	mu   sync.Mutex
	args []bool
	err  error
}

func (f *fakeCaller) Call(_ context.Context, _ bool, _, _, _, _ string, arg bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.args = append(f.args, arg)
	return f.err
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveAction(_, _, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

var testCall = Call{Service: "org.example.Dnd", Path: "/org/example/Dnd", Interface: "org.example.Dnd", Method: "SetEnabled"}

// =============================================================================
// Registration
// =============================================================================

func TestResolve(t *testing.T) {
	r := NewRegistry(&fakeRunner{}, &fakeCaller{}, time.Second)
	if err := r.RegisterShell("desk_lock", "lock"); err != nil {
		t.Fatalf("RegisterShell() error = %v", err)
	}

	a, err := r.Resolve("desk_lock")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if a.Kind != KindShell || a.Command != "lock" {
		t.Errorf("Resolve() = %+v, want shell action", a)
	}

	if _, err := r.Resolve("desk_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
}

func TestRegister_Errors(t *testing.T) {
	r := NewRegistry(&fakeRunner{}, nil, time.Second)

	if err := r.RegisterShell("a", "  "); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("RegisterShell(empty) error = %v, want ErrInvalidAction", err)
	}
	if err := r.RegisterSwitch("b", "cmd"); err != nil {
		t.Fatalf("RegisterSwitch() error = %v", err)
	}
	if err := r.RegisterSwitch("b", "cmd"); !errors.Is(err, ErrDuplicateAction) {
		t.Errorf("RegisterSwitch(dup) error = %v, want ErrDuplicateAction", err)
	}
	if err := r.RegisterCall("c", testCall); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("RegisterCall(no caller) error = %v, want ErrInvalidAction", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}
}

// =============================================================================
// Execution
// =============================================================================

func TestExecute_Shell(t *testing.T) {
	tests := []struct {
		name        string
		payload     string
		runErr      error
		wantSuccess bool
		wantRuns    int
		wantErr     error
	}{
		{name: "press", payload: "PRESS", wantSuccess: true, wantRuns: 1},
		{name: "press with whitespace", payload: " PRESS\n", wantSuccess: true, wantRuns: 1},
		{name: "wrong payload", payload: "press", wantRuns: 0, wantErr: ErrInvalidPayload},
		{name: "nonzero exit", payload: "PRESS", runErr: errors.New("exit status 1"), wantRuns: 1, wantErr: ErrActionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{err: tt.runErr}
			r := NewRegistry(runner, nil, time.Second)
			if err := r.RegisterShell("desk_lock", "loginctl lock-session"); err != nil {
				t.Fatal(err)
			}
			a, _ := r.Resolve("desk_lock")

			res := r.Execute(context.Background(), a, []byte(tt.payload))

			if res.Succeeded != tt.wantSuccess {
				t.Errorf("Succeeded = %v, want %v", res.Succeeded, tt.wantSuccess)
			}
			if res.NewState != "" {
				t.Errorf("NewState = %q, want empty for shell actions", res.NewState)
			}
			if got := len(runner.calls()); got != tt.wantRuns {
				t.Errorf("runs = %d, want %d", got, tt.wantRuns)
			}
			if tt.wantErr != nil && !errors.Is(res.Err, tt.wantErr) {
				t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
			}
		})
	}
}

func TestExecute_Switch(t *testing.T) {
	tests := []struct {
		name      string
		command   string
		payload   string
		wantCmd   string
		wantState string
		wantErr   error
	}{
		{name: "on appended", command: "caffeine", payload: "ON", wantCmd: "caffeine on", wantState: "ON"},
		{name: "off appended", command: "caffeine", payload: "OFF", wantCmd: "caffeine off", wantState: "OFF"},
		{name: "placeholder", command: "dnd --state={state} --quiet", payload: "ON", wantCmd: "dnd --state=on --quiet", wantState: "ON"},
		{name: "trimmed", command: "caffeine", payload: "  OFF \n", wantCmd: "caffeine off", wantState: "OFF"},
		{name: "lowercase rejected", command: "caffeine", payload: "on", wantErr: ErrInvalidPayload},
		{name: "toggle rejected", command: "caffeine", payload: "TOGGLE", wantErr: ErrInvalidPayload},
		{name: "empty rejected", command: "caffeine", payload: "", wantErr: ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			r := NewRegistry(runner, nil, time.Second)
			if err := r.RegisterSwitch("desk_caffeine", tt.command); err != nil {
				t.Fatal(err)
			}
			a, _ := r.Resolve("desk_caffeine")

			res := r.Execute(context.Background(), a, []byte(tt.payload))

			if tt.wantErr != nil {
				if !errors.Is(res.Err, tt.wantErr) {
					t.Errorf("Err = %v, want %v", res.Err, tt.wantErr)
				}
				if res.Succeeded || res.NewState != "" {
					t.Errorf("Result = %+v, want failure without state", res)
				}
				if n := len(runner.calls()); n != 0 {
					t.Errorf("runs = %d, want none for an invalid payload", n)
				}
				return
			}

			if !res.Succeeded || res.NewState != tt.wantState {
				t.Errorf("Result = %+v, want success with %q", res, tt.wantState)
			}
			if calls := runner.calls(); len(calls) != 1 || calls[0] != tt.wantCmd {
				t.Errorf("commands = %v, want [%q]", calls, tt.wantCmd)
			}
		})
	}
}

func TestExecute_Call(t *testing.T) {
	caller := &fakeCaller{}
	r := NewRegistry(&fakeRunner{}, caller, time.Second)
	if err := r.RegisterCall("desk_dnd", testCall); err != nil {
		t.Fatal(err)
	}
	a, _ := r.Resolve("desk_dnd")

	if res := r.Execute(context.Background(), a, []byte("ON")); !res.Succeeded || res.NewState != "ON" {
		t.Errorf("Execute(ON) = %+v", res)
	}
	if res := r.Execute(context.Background(), a, []byte("OFF")); !res.Succeeded || res.NewState != "OFF" {
		t.Errorf("Execute(OFF) = %+v", res)
	}
	if res := r.Execute(context.Background(), a, []byte("MAYBE")); !errors.Is(res.Err, ErrInvalidPayload) {
		t.Errorf("Execute(MAYBE) err = %v, want ErrInvalidPayload", res.Err)
	}

	if len(caller.args) != 2 || caller.args[0] != true || caller.args[1] != false {
		t.Errorf("call args = %v, want [true false]", caller.args)
	}

	caller.err = errors.New("org.freedesktop.DBus.Error.ServiceUnknown")
	res := r.Execute(context.Background(), a, []byte("ON"))
	if res.Succeeded || !errors.Is(res.Err, ErrActionFailed) {
		t.Errorf("Execute(call error) = %+v, want ErrActionFailed", res)
	}
}

func TestExecute_Timeout(t *testing.T) {
	runner := &fakeRunner{block: true}
	obs := &recordingObserver{}
	r := NewRegistry(runner, nil, 50*time.Millisecond)
	r.SetObserver(obs)
	if err := r.RegisterSwitch("desk_slow", "slow"); err != nil {
		t.Fatal(err)
	}
	a, _ := r.Resolve("desk_slow")

	start := time.Now()
	res := r.Execute(context.Background(), a, []byte("ON"))

	if res.Succeeded {
		t.Fatal("Execute() succeeded, want timeout failure")
	}
	if !errors.Is(res.Err, ErrTimeout) {
		t.Errorf("Err = %v, want ErrTimeout", res.Err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Execute() took %v, want bounded by timeout", elapsed)
	}
	if len(runner.calls()) != 1 {
		t.Errorf("runs = %d, want exactly one attempt", len(runner.calls()))
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != OutcomeTimeout {
		t.Errorf("observed = %v, want [%s]", obs.outcomes, OutcomeTimeout)
	}
}

func TestKind_String(t *testing.T) {
	if KindShell.String() != "shell" || KindSwitch.String() != "switch" || KindCall.String() != "call" {
		t.Error("unexpected Kind names")
	}
	if Kind(99).String() != "unknown" {
		t.Error("unknown kind should stringify as unknown")
	}
}
