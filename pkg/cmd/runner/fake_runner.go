package runner

import (
	"context"
	"strings"
	"sync"
)

// FakeRunner is a scripted CommandRunner for tests. Responses are registered
// against command-line prefixes and consumed in order; unmatched commands
// succeed with empty output. Every invocation is recorded.
type FakeRunner struct {
	mu        sync.Mutex
	responses map[string][]CommandResult
	calls     []Command
}

// NewFakeRunner constructs an empty scripted runner.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{responses: make(map[string][]CommandResult)}
}

// Stub registers a response for command lines beginning with prefix. Multiple
// responses for the same prefix are returned in registration order, the last
// one repeating.
func (f *FakeRunner) Stub(prefix string, result CommandResult) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses[prefix] = append(f.responses[prefix], result)

	return f
}

// StubFailure registers a failing response with the given stderr output.
func (f *FakeRunner) StubFailure(prefix, stderr string) *FakeRunner {
	return f.Stub(prefix, CommandResult{
		OK:       false,
		ExitCode: 1,
		Stderr:   stderr,
		Error:    "exit status 1",
	})
}

// Run returns the scripted response whose prefix is the longest match for
// the rendered command line.
func (f *FakeRunner) Run(_ context.Context, command Command) CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, command)

	line := command.String()
	bestPrefix := ""

	for prefix := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
		}
	}

	if bestPrefix == "" {
		return CommandResult{OK: true, ExitCode: 0}
	}

	queue := f.responses[bestPrefix]

	result := queue[0]
	if len(queue) > 1 {
		f.responses[bestPrefix] = queue[1:]
	}

	return result
}

// Calls returns a copy of every command run so far, in order.
func (f *FakeRunner) Calls() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]Command, len(f.calls))
	copy(calls, f.calls)

	return calls
}

// CommandLines returns the rendered command line of every call, in order.
func (f *FakeRunner) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(f.calls))
	for _, call := range f.calls {
		lines = append(lines, call.String())
	}

	return lines
}
