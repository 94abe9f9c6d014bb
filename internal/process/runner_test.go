package process

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(Config{})

	if r.config.Shell != "/bin/sh" {
		t.Errorf("Shell = %q, want %q", r.config.Shell, "/bin/sh")
	}
	if r.config.GracefulTimeout != 2*time.Second {
		t.Errorf("GracefulTimeout = %v, want %v", r.config.GracefulTimeout, 2*time.Second)
	}
}

func TestRun_Success(t *testing.T) {
	r := NewRunner(Config{})

	if err := r.Run(context.Background(), "true"); err != nil {
		t.Errorf("Run(true) error = %v, want nil", err)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	r := NewRunner(Config{})

	err := r.Run(context.Background(), "echo boom >&2; exit 3")
	if !errors.Is(err, ErrNonZeroExit) {
		t.Fatalf("Run() error = %v, want ErrNonZeroExit", err)
	}
	if !strings.Contains(err.Error(), "exit status 3") {
		t.Errorf("error %q missing exit status", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q missing captured output", err)
	}
}

func TestRun_Env(t *testing.T) {
	r := NewRunner(Config{Env: []string{"HOSTLINK_TEST_VALUE=42"}})

	if err := r.Run(context.Background(), `test "$HOSTLINK_TEST_VALUE" = 42`); err != nil {
		t.Errorf("Run() error = %v, want env passed through", err)
	}
}

func TestRun_TimeoutTerminatesGroup(t *testing.T) {
	r := NewRunner(Config{GracefulTimeout: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, "sleep 10")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("Run() error = %v, want ErrTerminated", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want wrapped DeadlineExceeded", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run() took %v, want prompt termination", elapsed)
	}
}

func TestRun_IgnoredTermEscalatesToKill(t *testing.T) {
	r := NewRunner(Config{GracefulTimeout: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := r.Run(ctx, "trap '' TERM; sleep 10")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTerminated) {
		t.Fatalf("Run() error = %v, want ErrTerminated", err)
	}
	if elapsed > 3*time.Second {
		t.Errorf("Run() took %v, want SIGKILL after grace period", elapsed)
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	r := NewRunner(Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := r.Run(ctx, "true"); !errors.Is(err, ErrTerminated) {
		t.Errorf("Run() error = %v, want ErrTerminated", err)
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := &limitedBuffer{limit: 5}

	n, err := b.Write([]byte("abc"))
	if n != 3 || err != nil {
		t.Fatalf("Write() = %d, %v", n, err)
	}
	n, _ = b.Write([]byte("defgh"))
	if n != 5 {
		t.Errorf("Write() n = %d, want full length reported", n)
	}
	if got := b.String(); got != "abcde" {
		t.Errorf("String() = %q, want %q", got, "abcde")
	}
}
