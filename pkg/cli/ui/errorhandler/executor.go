// Package errorhandler executes the root command while collapsing Cobra's
// stderr chatter into a single presentable error.
package errorhandler

import (
	"bytes"
	"strings"

	"github.com/spf13/cobra"
)

// Executor runs a Cobra command with its error stream intercepted.
type Executor struct{}

// NewExecutor constructs an Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs the command and returns nil on success. On failure it returns
// a *CommandError pairing the normalized stderr text with the original error,
// so callers print one message while errors.Is still reaches the cause.
func (e *Executor) Execute(cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}

	var stderr bytes.Buffer

	previous := cmd.ErrOrStderr()

	cmd.SetErr(&stderr)
	defer cmd.SetErr(previous)

	err := cmd.Execute()
	if err == nil {
		return nil
	}

	return &CommandError{
		message: Normalize(stderr.String()),
		cause:   err,
	}
}

// CommandError is a command failure annotated with the normalized stderr
// output Cobra produced while failing.
type CommandError struct {
	message string
	cause   error
}

// Error renders the normalized message, appending the cause only when the
// message does not already contain it.
func (e *CommandError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause == nil:
		return e.message
	case e.message == "":
		return e.cause.Error()
	case strings.Contains(e.message, e.cause.Error()):
		return e.message
	default:
		return e.message + ": " + e.cause.Error()
	}
}

// Unwrap exposes the original error for errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Normalize trims the captured stderr text and strips Cobra's "Error: "
// prefix from the first line while keeping multi-line usage hints intact.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	lines := strings.Split(trimmed, "\n")
	lines[0] = strings.TrimPrefix(strings.TrimSpace(lines[0]), "Error: ")

	return strings.Join(lines, "\n")
}
