package workspace

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cli/flags"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/orchwiz/shipyard/pkg/io/scaffolder"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/spf13/cobra"
)

const (
	forceFlagName  = "force"
	outputFlagName = "output"
)

const initLongDesc = `Scaffold the deploy workspace for a fresh checkout.

Generates shipyard.yaml, a kind cluster config, and the example environment,
inventory, playbook, and build files the bootstrap pipeline expects. Existing
files are kept unless --force is set, so rerunning init never clobbers
operator edits.

Examples:
  # Scaffold into the current directory
  shipyard workspace init

  # Scaffold into another checkout, replacing previous scaffold output
  shipyard workspace init --output ../my-app --force`

// NewInitCmd creates the init command.
func NewInitCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Scaffold the deploy workspace",
		Long:         initLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	cmd.Flags().Bool(forceFlagName, false, "Overwrite files that already exist")
	cmd.Flags().String(outputFlagName, ".", "Directory to scaffold the workspace into")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, HandleInitRunE)

	return cmd
}

// HandleInitRunE handles the init command. Exported for testing purposes.
func HandleInitRunE(cmd *cobra.Command, injector di.Injector) error {
	tmr, err := di.ResolveTimer(injector)
	if err != nil {
		return err
	}

	tmr.Start()

	writer := cmd.OutOrStdout()

	force, err := cmd.Flags().GetBool(forceFlagName)
	if err != nil {
		return fmt.Errorf("read %q flag: %w", forceFlagName, err)
	}

	outputDir, err := cmd.Flags().GetString(outputFlagName)
	if err != nil {
		return fmt.Errorf("read %q flag: %w", outputFlagName, err)
	}

	err = scaffolder.NewScaffolder(v1alpha1.NewWorkspace(), writer, force).Scaffold(outputDir)
	if err != nil {
		return fmt.Errorf("scaffold workspace: %w", err)
	}

	notify.SuccessWithTimerf(writer, flags.MaybeTimer(cmd, tmr), "workspace ready in %s", outputDir)

	return nil
}
