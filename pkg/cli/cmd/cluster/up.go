package cluster

import (
	"fmt"
	"os"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cli/flags"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/svc/bootstrap"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/spf13/cobra"
)

const (
	saneBootstrapFlagName = "sane-bootstrap"
	contextFileFlagName   = "context-file"
)

const upLongDesc = `Bootstrap the locally hosted deployment environment.

The pipeline validates the deploy workspace, checks required tools, verifies
the cluster context, optionally builds and loads the app image, runs the
provisioning playbook, and injects the context bundle into target workloads.

Mutating steps only run when execution is enabled via --execution-enabled or
SHIPYARD_EXECUTION_ENABLED=true; without it the pipeline stops after the
read-only checks.

Examples:
  # Validate the workspace and report what a full run would need
  shipyard cluster up

  # Provision the environment
  shipyard cluster up --execution-enabled

  # Provision and inject a context bundle into the api deployment
  shipyard cluster up --execution-enabled --context-file role.md --target-workloads api`

// UpDeps captures the platform seams of the up command. Zero values select
// the real platform; tests inject fakes.
type UpDeps struct {
	// LookPath resolves executables; nil uses the real search path.
	LookPath func(name string) (string, error)
	// GOOS overrides the detected operating system for installer dispatch.
	GOOS string
	// IsRoot reports whether the process may install packages directly.
	IsRoot func() bool
	// Clientsets builds cluster clients for context injection.
	Clientsets bootstrap.ClientsetFactory
}

// NewUpCmd creates the up command.
func NewUpCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "up",
		Short:        "Bootstrap the local deployment environment",
		Long:         upLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	manager := settings.NewCommandManager(cmd)

	cmd.Flags().Bool(saneBootstrapFlagName, true,
		"Enable the managed install and image build stages")
	cmd.Flags().String(contextFileFlagName, "",
		"Role file to package into the context bundle")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return HandleUpRunE(cmd, injector, manager, UpDeps{})
	})

	return cmd
}

// HandleUpRunE handles the up command. Exported for testing purposes.
func HandleUpRunE(
	cmd *cobra.Command,
	injector di.Injector,
	loader settings.Loader,
	deps UpDeps,
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

	input, err := buildInput(cmd, *cfg)
	if err != nil {
		return err
	}

	orchestrator := bootstrap.NewOrchestrator(commandRunner, bootstrap.Options{
		LookPath:   deps.LookPath,
		GOOS:       deps.GOOS,
		IsRoot:     deps.IsRoot,
		Clientsets: deps.Clientsets,
		Out:        writer,
		Timer:      tmr,
	})

	result := orchestrator.Bootstrap(cmd.Context(), input, *cfg)

	summarizeMetadata(writer, result.Metadata)

	if !result.Succeeded() {
		renderFailure(writer, result.Failure)

		return fmt.Errorf("bootstrap failed: %s", result.Failure.Message)
	}

	notify.SuccessWithTimerf(writer, outputTimer, "environment ready")

	return nil
}

// buildInput assembles the bootstrap input from the resolved settings and the
// flags only the up command carries.
func buildInput(cmd *cobra.Command, cfg settings.Settings) (v1alpha1.BootstrapInput, error) {
	saneBootstrap, err := cmd.Flags().GetBool(saneBootstrapFlagName)
	if err != nil {
		return v1alpha1.BootstrapInput{}, fmt.Errorf("read %q flag: %w", saneBootstrapFlagName, err)
	}

	input := v1alpha1.BootstrapInput{
		Infrastructure: cfg.Infrastructure,
		Mode:           v1alpha1.ModeLocal,
		SaneBootstrap:  saneBootstrap,
		AppName:        cfg.AppName,
	}

	contextFile, err := cmd.Flags().GetString(contextFileFlagName)
	if err != nil {
		return v1alpha1.BootstrapInput{}, fmt.Errorf("read %q flag: %w", contextFileFlagName, err)
	}

	if contextFile != "" {
		content, err := os.ReadFile(contextFile)
		if err != nil {
			return v1alpha1.BootstrapInput{}, fmt.Errorf("read context file: %w", err)
		}

		bundle := v1alpha1.BuildContextBundle(cfg.AppName, contextFile, string(content))
		input.Bundle = &bundle
	}

	return input, nil
}
