// Package cluster holds the commands operating on the local cluster: up,
// reset, and status.
package cluster

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/spf13/cobra"
)

// NewClusterCmd creates the parent cluster command and wires the lifecycle
// subcommands beneath it.
func NewClusterCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cluster",
		Short:        "Manage the local cluster environment",
		Long:         "Bootstrap, reset, and inspect the locally hosted deployment environment.",
		Args:         cobra.NoArgs,
		RunE:         handleClusterRunE,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewUpCmd(runtimeContainer))
	cmd.AddCommand(NewResetCmd(runtimeContainer))
	cmd.AddCommand(NewStatusCmd(runtimeContainer))

	return cmd
}

func handleClusterRunE(cmd *cobra.Command, _ []string) error {
	err := cmd.Help()
	if err != nil {
		return fmt.Errorf("displaying cluster command help: %w", err)
	}

	return nil
}
