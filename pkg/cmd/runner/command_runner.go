// Package runner provides the single capability through which every external
// tool (terraform, ansible-playbook, kubectl, kind, minikube, docker) is
// invoked. Components never call os/exec directly; they receive a
// CommandRunner so tests can substitute scripted fakes.
package runner

import (
	"context"
	"strings"
	"time"
)

// CaptureLimit bounds how many bytes of stdout and stderr are retained per
// invocation. Output beyond the limit is discarded, not buffered.
const CaptureLimit = 1 << 20

// DefaultTimeout bounds invocations that do not specify their own timeout.
const DefaultTimeout = 60 * time.Second

// Command describes one external process invocation.
type Command struct {
	// Name is the executable to invoke, resolved via the search path.
	Name string
	// Args are the arguments passed verbatim to the executable.
	Args []string
	// Dir is the working directory. Empty means the caller's working directory.
	Dir string
	// Env entries (KEY=VALUE) are appended over the ambient environment,
	// overriding ambient values for duplicate keys.
	Env []string
	// Timeout bounds the invocation. Zero applies DefaultTimeout.
	Timeout time.Duration
}

// String renders the literal command line, suitable for remediation output.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}

	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandResult captures the outcome of one invocation. Failures are encoded
// in the result rather than returned as Go errors so callers can always
// inspect the captured output.
type CommandResult struct {
	// OK is true when the process started, exited zero, and did not time out.
	OK bool `json:"ok"`
	// ExitCode is the process exit code, or -1 when the process never ran or timed out.
	ExitCode int `json:"exitCode"`
	// Stdout holds captured standard output, truncated at CaptureLimit.
	Stdout string `json:"stdout,omitempty"`
	// Stderr holds captured standard error, truncated at CaptureLimit.
	Stderr string `json:"stderr,omitempty"`
	// Error describes a start failure, timeout, or non-zero exit.
	Error string `json:"error,omitempty"`
}

// CombinedOutput joins stdout and stderr for signature scanning.
func (r CommandResult) CombinedOutput() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// OutputTailLimit bounds the diagnostic tail attached to failures. Full
// captured output stays available on the result itself.
const OutputTailLimit = 2000

// OutputTail returns the last OutputTailLimit bytes of the combined output.
func (r CommandResult) OutputTail() string {
	combined := r.CombinedOutput()
	if len(combined) <= OutputTailLimit {
		return combined
	}

	return combined[len(combined)-OutputTailLimit:]
}

// CommandRunner executes external commands. Implementations must honor the
// command timeout and never leave a timed-out process running.
type CommandRunner interface {
	Run(ctx context.Context, command Command) CommandResult
}
