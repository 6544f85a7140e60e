package di

import (
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/ui/timer"
	"github.com/samber/do/v2"
)

// Dependency providers.

// NewRuntime constructs the shared runtime container used by the root command
// and tests. It registers default implementations for the timer and the
// command runner; tests swap them via extra modules.
func NewRuntime() *Runtime {
	return New(
		provideTimer,
		provideCommandRunner,
	)
}

// provideTimer registers the timer dependency with the injector.
func provideTimer(i Injector) error {
	do.Provide(i, func(Injector) (timer.Timer, error) {
		return timer.New(), nil
	})

	return nil
}

// provideCommandRunner registers the execute capability every external
// tool invocation flows through.
func provideCommandRunner(i Injector) error {
	do.Provide(i, func(Injector) (runner.CommandRunner, error) {
		return runner.NewExecRunner(), nil
	})

	return nil
}
