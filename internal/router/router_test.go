package router

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestBind(t *testing.T) {
	r := New(4)
	noop := func(context.Context, []byte) {}

	if err := r.Bind("a/set", noop); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	if err := r.Bind("a/set", noop); !errors.Is(err, ErrDuplicateBinding) {
		t.Errorf("Bind(dup) error = %v, want ErrDuplicateBinding", err)
	}
	if err := r.Bind("", noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Bind(empty) error = %v, want ErrInvalidTopic", err)
	}
	if err := r.Bind("b/set", nil); !errors.Is(err, ErrInvalidHandler) {
		t.Errorf("Bind(nil) error = %v, want ErrInvalidHandler", err)
	}
}

func TestSubscriptions_ExcludeLocal(t *testing.T) {
	r := New(4)
	noop := func(context.Context, []byte) {}

	_ = r.Bind("z/set", noop)
	_ = r.Bind("a/set", noop)
	_ = r.BindLocal("hostlink/desk/event/power", noop)

	want := []string{"a/set", "z/set"}
	if got := r.Subscriptions(); !reflect.DeepEqual(got, want) {
		t.Errorf("Subscriptions() = %v, want %v", got, want)
	}
}

func TestReset(t *testing.T) {
	r := New(4)
	noop := func(context.Context, []byte) {}
	_ = r.Bind("a/set", noop)

	r.Reset()

	if got := r.Subscriptions(); len(got) != 0 {
		t.Errorf("Subscriptions() after Reset = %v, want none", got)
	}
	if err := r.Bind("a/set", noop); err != nil {
		t.Errorf("Bind() after Reset error = %v, want nil", err)
	}
}

func TestRoute_ExactMatch(t *testing.T) {
	r := New(4)
	got := make(chan string, 1)
	_ = r.Bind("homeassistant/switch/desk_a/set", func(_ context.Context, p []byte) {
		got <- string(p)
	})

	if o := r.Route("homeassistant/switch/desk_a/set", []byte("ON")); o != OutcomeDispatched {
		t.Fatalf("Route() = %v, want dispatched", o)
	}
	select {
	case p := <-got:
		if p != "ON" {
			t.Errorf("payload = %q, want ON", p)
		}
	case <-time.After(time.Second):
		t.Fatal("handler not invoked")
	}

	if o := r.Route("homeassistant/switch/+/set", []byte("ON")); o != OutcomeUnmatched {
		t.Errorf("Route(wildcard) = %v, want unmatched", o)
	}
	if o := r.Route("homeassistant/switch/desk_a/set/extra", []byte("ON")); o != OutcomeUnmatched {
		t.Errorf("Route(longer) = %v, want unmatched", o)
	}
}

func TestRoute_DoesNotBlock(t *testing.T) {
	r := New(4)
	release := make(chan struct{})
	var started atomic.Int32

	slow := func(context.Context, []byte) {
		started.Add(1)
		<-release
	}
	_ = r.Bind("a/set", slow)
	_ = r.Bind("b/set", slow)

	done := make(chan struct{})
	go func() {
		r.Route("a/set", []byte("PRESS"))
		r.Route("b/set", []byte("PRESS"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Route blocked on a running handler")
	}

	deadline := time.Now().Add(time.Second)
	for started.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if started.Load() != 2 {
		t.Errorf("started = %d, want both handlers running concurrently", started.Load())
	}
	if r.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", r.Pending())
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Close()
	if err := r.Wait(ctx); err != nil {
		t.Errorf("Wait() error = %v", err)
	}
}

func TestRoute_Saturated(t *testing.T) {
	r := New(1)
	release := make(chan struct{})
	_ = r.Bind("a/set", func(context.Context, []byte) { <-release })

	if o := r.Route("a/set", nil); o != OutcomeDispatched {
		t.Fatalf("first Route() = %v, want dispatched", o)
	}
	if o := r.Route("a/set", nil); o != OutcomeSaturated {
		t.Errorf("second Route() = %v, want saturated", o)
	}

	close(release)
	r.Close()
	_ = r.Wait(context.Background())

	if r.Pending() != 0 {
		t.Errorf("Pending() = %d after drain, want 0", r.Pending())
	}
}

func TestRoute_PayloadIsCopied(t *testing.T) {
	r := New(1)
	got := make(chan string, 1)
	release := make(chan struct{})
	_ = r.Bind("a/set", func(_ context.Context, p []byte) {
		<-release
		got <- string(p)
	})

	buf := []byte("ON")
	r.Route("a/set", buf)
	copy(buf, "XX")
	close(release)

	if p := <-got; p != "ON" {
		t.Errorf("payload = %q, want the bytes at routing time", p)
	}
}

func TestClose_RejectsAndDrains(t *testing.T) {
	r := New(2)
	release := make(chan struct{})
	var finished atomic.Bool
	_ = r.Bind("a/set", func(context.Context, []byte) {
		<-release
		finished.Store(true)
	})

	r.Route("a/set", nil)
	r.Close()

	if o := r.Route("a/set", nil); o != OutcomeClosed {
		t.Errorf("Route() after Close = %v, want closed", o)
	}

	// Bounded wait expires while the handler is blocked.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want DeadlineExceeded", err)
	}

	close(release)
	if err := r.Wait(context.Background()); err != nil {
		t.Errorf("Wait() error = %v, want nil", err)
	}
	if !finished.Load() {
		t.Error("handler did not finish")
	}
}

func TestRun_RecoversPanic(t *testing.T) {
	r := New(1)
	_ = r.Bind("a/set", func(context.Context, []byte) { panic("boom") })

	r.Route("a/set", nil)
	r.Close()
	if err := r.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() = %d, want slot released after panic", r.Pending())
	}
}

type countingObserver struct{ outcomes []string }

func (c *countingObserver) ObserveRoute(o string) { c.outcomes = append(c.outcomes, o) }

func TestRoute_Observer(t *testing.T) {
	r := New(1)
	obs := &countingObserver{}
	r.SetObserver(obs)

	r.Route("nothing/here", nil)

	if len(obs.outcomes) != 1 || obs.outcomes[0] != "unmatched" {
		t.Errorf("observed = %v, want [unmatched]", obs.outcomes)
	}
}
