// Package cmd assembles the shipyard command tree.
package cmd

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/cli/cmd/cluster"
	"github.com/orchwiz/shipyard/pkg/cli/cmd/workspace"
	"github.com/orchwiz/shipyard/pkg/cli/flags"
	"github.com/orchwiz/shipyard/pkg/cli/ui/errorhandler"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with version info and subcommands.
func NewRootCmd(version, commit, date string) *cobra.Command {
	runtimeContainer := di.NewRuntime()

	cmd := &cobra.Command{
		Use:          "shipyard",
		Short:        "Shipyard bootstraps and maintains locally hosted deployment environments",
		Long:         "Shipyard bootstraps and maintains locally hosted deployment environments",
		RunE:         handleRootRunE,
		SilenceUsage: true,
	}

	cmd.Version = fmt.Sprintf("%s (Built on %s from Git SHA %s)", version, date, commit)

	cmd.PersistentFlags().Bool(
		flags.TimingFlagName,
		false,
		"Show per-activity timing output",
	)

	cmd.AddCommand(cluster.NewClusterCmd(runtimeContainer))
	cmd.AddCommand(workspace.NewWorkspaceCmd(runtimeContainer))

	return cmd
}

// Execute runs the provided root command and handles errors.
func Execute(cmd *cobra.Command) error {
	executor := errorhandler.NewExecutor()

	err := executor.Execute(cmd)
	if err != nil {
		return fmt.Errorf("command execution failed: %w", err)
	}

	return nil
}

func handleRootRunE(cmd *cobra.Command, _ []string) error {
	// The err can safely be ignored, as it can never fail at runtime.
	_ = cmd.Help()

	return nil
}
