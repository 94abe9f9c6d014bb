// Package process runs the shell commands behind button and switch entities.
//
// Each command runs as `/bin/sh -c <command>` in a new process group so that
// a cancelled or timed out command can be stopped together with everything
// it spawned: SIGTERM to the group first, SIGKILL after a grace period.
//
// Example usage:
//
//	runner := process.NewRunner(process.Config{GracefulTimeout: 2 * time.Second})
//	runner.SetLogger(logger)
//
//	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
//	defer cancel()
//	if err := runner.Run(ctx, "loginctl lock-session"); err != nil {
//	    // errors.Is(err, process.ErrNonZeroExit) / ErrTerminated
//	}
package process
