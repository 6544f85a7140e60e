package cluster

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/cli/flags"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/svc/reset"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/spf13/cobra"
)

const (
	confirmFlagName = "confirm"
	nameFlagName    = "name"
)

const resetLongDesc = `Delete and recreate the local cluster from scratch.

This is destructive: every workload and every piece of cluster state in the
named cluster is discarded. The confirmation literal must be passed verbatim
and execution must be enabled before anything runs.

Examples:
  # Reset the configured cluster
  shipyard cluster reset --confirm reset-local-cluster --execution-enabled

  # Reset a differently named cluster
  shipyard cluster reset --confirm reset-local-cluster --name sandbox --execution-enabled`

// ResetDeps captures the platform seams of the reset command. Zero values
// select the real platform; tests inject fakes.
type ResetDeps struct {
	// LookPath resolves executables; nil uses the real search path.
	LookPath func(name string) (string, error)
	// Authorizer guards the flow; nil allows everything, matching a local
	// operator at their own terminal.
	Authorizer reset.Authorizer
}

// NewResetCmd creates the reset command.
func NewResetCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "reset",
		Short:        "Delete and recreate the local cluster",
		Long:         resetLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	manager := settings.NewCommandManager(cmd)

	cmd.Flags().String(confirmFlagName, "",
		fmt.Sprintf("Confirmation literal; must be %q", reset.ConfirmationLiteral))
	cmd.Flags().String(nameFlagName, "",
		"Cluster name to reset (defaults to the configured cluster)")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return HandleResetRunE(cmd, injector, manager, ResetDeps{})
	})

	return cmd
}

// HandleResetRunE handles the reset command. Exported for testing purposes.
func HandleResetRunE(
	cmd *cobra.Command,
	injector di.Injector,
	loader settings.Loader,
	deps ResetDeps,
) error {
	tmr, err := di.ResolveTimer(injector)
	if err != nil {
		return err
	}

	commandRunner, err := di.ResolveCommandRunner(injector)
	if err != nil {
		return err
	}

	tmr.Start()

	writer := cmd.OutOrStdout()
	outputTimer := flags.MaybeTimer(cmd, tmr)

	cfg, err := loader.Load(settings.LoadOptions{Timer: outputTimer})
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	confirm, err := cmd.Flags().GetString(confirmFlagName)
	if err != nil {
		return fmt.Errorf("read %q flag: %w", confirmFlagName, err)
	}

	name, err := cmd.Flags().GetString(nameFlagName)
	if err != nil {
		return fmt.Errorf("read %q flag: %w", nameFlagName, err)
	}

	if name == "" {
		name = cfg.Infrastructure.ClusterName()
	}

	orchestrator := reset.NewOrchestrator(commandRunner, reset.Options{
		Authorizer:       deps.Authorizer,
		ExecutionEnabled: cfg.ExecutionEnabled,
		CommandTimeout:   cfg.CommandTimeout,
		LookPath:         deps.LookPath,
	})

	notify.Activityf(writer, "resetting the local cluster")

	result, failure := orchestrator.Reset(cmd.Context(), reset.Request{
		Confirmation: confirm,
		ClusterName:  name,
	})

	if failure != nil {
		renderFailure(writer, failure)

		if result != nil && result.OutputTail != "" {
			notify.Infof(writer, "output tail:\n%s", result.OutputTail)
		}

		return fmt.Errorf("cluster reset failed: %s", failure.Message)
	}

	notify.SuccessWithTimerf(writer, outputTimer, "cluster %q reset (context %s)",
		result.ClusterName, result.Context)

	return nil
}
