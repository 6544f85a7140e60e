// Package main is the entry point for the shipyard application.
package main

import (
	"os"
	"runtime/debug"

	"github.com/orchwiz/shipyard/internal/buildmeta"
	"github.com/orchwiz/shipyard/pkg/cli/cmd"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the root command and converts every failure mode, panics
// included, into an exit code.
//
//nolint:nonamedreturns // The named return lets the recover path set the exit code.
func run(args []string) (exitCode int) {
	defer func() {
		if r := recover(); r != nil {
			notify.Errorf(os.Stderr, "panic recovered: %v\n%s", r, debug.Stack())

			exitCode = 1
		}
	}()

	rootCmd := cmd.NewRootCmd(buildmeta.Version, buildmeta.Commit, buildmeta.Date)
	rootCmd.SetArgs(args)

	err := cmd.Execute(rootCmd)
	if err != nil {
		notify.Errorf(rootCmd.ErrOrStderr(), "%v", err)

		return 1
	}

	return 0
}
