package process

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// outputLimit caps the combined stdout/stderr kept for error reports.
const outputLimit = 4096

// Config holds configuration for the command runner.
type Config struct {
	// Shell is the interpreter used as `<Shell> -c <command>`.
	// Default: "/bin/sh"
	Shell string

	// GracefulTimeout is how long a cancelled command gets between SIGTERM and SIGKILL.
	// Default: 2s
	GracefulTimeout time.Duration

	// Env are additional environment variables (key=value format).
	// If nil, inherits from parent process.
	Env []string
}

// Logger defines the logging interface for the runner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Runner executes one-shot shell commands in their own process group.
//
// Thread Safety:
//   - Run may be called concurrently; each call owns its own process.
type Runner struct {
	config Config
	logger Logger
}

// NewRunner creates a runner with the given configuration.
func NewRunner(cfg Config) *Runner {
	if cfg.Shell == "" {
		cfg.Shell = "/bin/sh"
	}
	if cfg.GracefulTimeout == 0 {
		cfg.GracefulTimeout = 2 * time.Second
	}

	return &Runner{
		config: cfg,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the runner.
func (r *Runner) SetLogger(logger Logger) {
	r.logger = logger
}

// Run executes command through the shell and waits for it to exit.
//
// When ctx is cancelled first, the whole process group receives SIGTERM,
// then SIGKILL after GracefulTimeout.
//
// Returns:
//   - nil when the command exits with status zero
//   - ErrStartFailed if the shell could not be started
//   - ErrNonZeroExit for any other exit status
//   - ErrTerminated if the command was stopped because ctx ended
func (r *Runner) Run(ctx context.Context, command string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrTerminated, err)
	}

	cmd := exec.Command(r.config.Shell, "-c", command) //nolint:gosec // Commands come from the operator's config file

	// New process group so a timeout reaches every child the shell spawned
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.WaitDelay = r.config.GracefulTimeout

	if r.config.Env != nil {
		cmd.Env = append(cmd.Environ(), r.config.Env...)
	}

	out := &limitedBuffer{limit: outputLimit}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %w", ErrStartFailed, err)
	}

	pid := cmd.Process.Pid
	r.logger.Debug("command started", "command", command, "pid", pid)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		return r.exitError(command, err, out)
	case <-ctx.Done():
	}

	r.logger.Warn("command cancelled, stopping process group",
		"command", command,
		"pid", pid,
		"reason", ctx.Err(),
	)
	r.signalGroup(pid, syscall.SIGTERM)

	select {
	case <-done:
	case <-time.After(r.config.GracefulTimeout):
		r.logger.Warn("graceful stop timeout, sending SIGKILL",
			"command", command,
			"timeout", r.config.GracefulTimeout,
		)
		r.signalGroup(pid, syscall.SIGKILL)
		<-done
	}

	return fmt.Errorf("%w: %w", ErrTerminated, ctx.Err())
}

// exitError maps the result of cmd.Wait to a runner error.
func (r *Runner) exitError(command string, err error, out *limitedBuffer) error {
	if err == nil {
		r.logger.Debug("command finished", "command", command)
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		output := strings.TrimSpace(out.String())
		r.logger.Debug("command failed",
			"command", command,
			"exit_code", exitErr.ExitCode(),
			"output", output,
		)
		if output != "" {
			return fmt.Errorf("%w: exit status %d: %s", ErrNonZeroExit, exitErr.ExitCode(), output)
		}
		return fmt.Errorf("%w: exit status %d", ErrNonZeroExit, exitErr.ExitCode())
	}

	return fmt.Errorf("%w: %w", ErrNonZeroExit, err)
}

// signalGroup signals the process group led by pid.
func (r *Runner) signalGroup(pid int, sig syscall.Signal) {
	// Negative PID addresses the group created via Setpgid
	if err := syscall.Kill(-pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		r.logger.Warn("failed to signal process group", "pid", pid, "signal", sig, "error", err)
	}
}

// limitedBuffer keeps the first limit bytes written and discards the rest.
// exec.Cmd serialises writes when Stdout and Stderr share one writer.
type limitedBuffer struct {
	buf   []byte
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - len(b.buf); room > 0 {
		if len(p) > room {
			b.buf = append(b.buf, p[:room]...)
		} else {
			b.buf = append(b.buf, p...)
		}
	}
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	return string(b.buf)
}
