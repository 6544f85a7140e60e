// Package workspace holds the commands operating on the deploy workspace.
package workspace

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/spf13/cobra"
)

// NewWorkspaceCmd creates the parent workspace command.
func NewWorkspaceCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "workspace",
		Short:        "Manage the deploy workspace",
		Long:         "Scaffold and maintain the deploy workspace the bootstrap pipeline runs against.",
		Args:         cobra.NoArgs,
		RunE:         handleWorkspaceRunE,
		SilenceUsage: true,
	}

	cmd.AddCommand(NewInitCmd(runtimeContainer))

	return cmd
}

func handleWorkspaceRunE(cmd *cobra.Command, _ []string) error {
	err := cmd.Help()
	if err != nil {
		return fmt.Errorf("displaying workspace command help: %w", err)
	}

	return nil
}
