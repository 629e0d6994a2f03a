package system

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// PrivilegeBroker is the interactive authorization helper that
	// RunPrivileged executes commands through.
	PrivilegeBroker = "pkexec"
	// CommandTimeout bounds every subprocess started by this package.
	CommandTimeout = 30 * time.Second
)

const defaultMaxSubprocesses = 4

var spawnLimit atomic.Pointer[semaphore.Weighted]

func init() {
	SetMaxSubprocesses(defaultMaxSubprocesses)
}

// SetMaxSubprocesses caps how many helper processes may run at once.
func SetMaxSubprocesses(n int) {
	if n <= 0 {
		n = 1
	}
	spawnLimit.Store(semaphore.NewWeighted(int64(n)))
}

type commandResult struct {
	stdout   []byte
	stderr   []byte
	exitCode int
}

func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (commandResult, error) {
	res := commandResult{exitCode: -1}

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// waiting for a slot counts against the timeout
	sem := spawnLimit.Load()
	if err := sem.Acquire(runCtx, 1); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return res, &TimeoutError{Command: name, Timeout: timeout}
		}
		return res, fmt.Errorf("wait for subprocess slot: %w", err)
	}
	defer sem.Release(1)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	res.stdout = stdout.Bytes()
	res.stderr = stderr.Bytes()
	if cmd.ProcessState != nil {
		res.exitCode = cmd.ProcessState.ExitCode()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return res, &TimeoutError{Command: name, Timeout: timeout}
	}
	return res, err
}

// Exit statuses pkexec uses for its own failures: the dialog was dismissed, or
// the user is not authorized (also "command not found").
const (
	brokerDismissed     = 126
	brokerNotAuthorized = 127
)

// RunPrivileged runs command through the privilege broker, waits for it and
// returns its trimmed standard output. A command that ran and exited non-zero
// is not a failure: its output is returned as is. Spawn failures, signal
// kills and broker refusals give an empty output and an *ExecutionError; an
// expired CommandTimeout gives a *TimeoutError. Callers are expected to log
// the error and carry on.
func RunPrivileged(ctx context.Context, command string, args ...string) (string, error) {
	full := append([]string{command}, args...)
	res, err := runCommand(ctx, CommandTimeout, PrivilegeBroker, full...)
	stdout := strings.TrimSpace(string(res.stdout))
	if err == nil {
		return stdout, nil
	}

	var te *TimeoutError
	if errors.As(err, &te) {
		te.Command = PrivilegeBroker + " " + command
		return "", te
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && res.exitCode > 0 &&
		res.exitCode != brokerDismissed && res.exitCode != brokerNotAuthorized {
		return stdout, nil
	}
	return "", &ExecutionError{
		Command:  command,
		ExitCode: res.exitCode,
		Stdout:   stdout,
		Stderr:   strings.TrimSpace(string(res.stderr)),
		Err:      err,
	}
}
