package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ExecRunner runs commands as real OS processes with capped output capture.
type ExecRunner struct{}

// NewExecRunner constructs the default process-backed runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command, waiting for it to exit or time out. The process
// is killed when the timeout elapses.
//
//nolint:gosec // G204: command names come from the fixed tool tables, never from user input.
func (r *ExecRunner) Run(ctx context.Context, command Command) CommandResult {
	timeout := command.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCappedBuffer(CaptureLimit)
	stderr := newCappedBuffer(CaptureLimit)

	cmd := exec.CommandContext(runCtx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}

	err := cmd.Run()

	result := CommandResult{
		OK:       err == nil,
		ExitCode: exitCodeOf(cmd, err),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}

	switch {
	case err == nil:
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Error = fmt.Sprintf("command %q timed out after %s", command.String(), timeout)
	default:
		result.Error = err.Error()
	}

	return result
}

// --- internals ---

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return 0
	}

	return -1
}

// cappedBuffer accepts writes up to a fixed capacity and silently discards
// the rest, so runaway tool output cannot exhaust memory.
type cappedBuffer struct {
	limit int
	data  []byte
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - len(b.data)
	if remaining > 0 {
		if len(p) > remaining {
			b.data = append(b.data, p[:remaining]...)
		} else {
			b.data = append(b.data, p...)
		}
	}

	// Report full consumption so the child process never sees a write error.
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return string(b.data)
}
