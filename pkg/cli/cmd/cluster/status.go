package cluster

import (
	"errors"
	"fmt"
	"io"

	"github.com/orchwiz/shipyard/pkg/cli/flags"
	"github.com/orchwiz/shipyard/pkg/client/docker"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/svc/status"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/spf13/cobra"
)

// ErrUnhealthy is returned when any environment probe fails.
var ErrUnhealthy = errors.New("environment is not healthy")

const statusLongDesc = `Probe the health of the local environment without changing it.

Four probes run in parallel: the container engine, the cluster node
containers, the kubeconfig context, and the required tools. Each reports
independently; a failing engine never hides a missing tool.

Examples:
  # Probe the configured environment
  shipyard cluster status`

// StatusDeps captures the probe seams of the status command. Zero values
// select the real platform; tests inject fakes.
type StatusDeps struct {
	// Engine probes the container engine; nil connects to the real one.
	Engine *docker.Engine
	// LookPath resolves executables; nil uses the real search path.
	LookPath func(name string) (string, error)
}

// NewStatusCmd creates the status command.
func NewStatusCmd(runtimeContainer *di.Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "status",
		Short:        "Probe the health of the local environment",
		Long:         statusLongDesc,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	manager := settings.NewCommandManager(cmd)

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return HandleStatusRunE(cmd, injector, manager, StatusDeps{})
	})

	return cmd
}

// HandleStatusRunE handles the status command. Exported for testing purposes.
func HandleStatusRunE(
	cmd *cobra.Command,
	injector di.Injector,
	loader settings.Loader,
	deps StatusDeps,
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

	cfg, err := loader.Load(settings.LoadOptions{Timer: outputTimer, Silent: true})
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	engine := deps.Engine
	if engine == nil {
		engine, err = docker.Connect()
		if err != nil {
			// A nil engine still probes; it just reports as unavailable.
			notify.Warningf(writer, "container engine client: %v", err)
		}
	}

	defer func() { _ = engine.Close() }()

	prober := status.NewProber(engine, commandRunner, cfg.ProbeTimeout)
	if deps.LookPath != nil {
		prober = status.NewProberWithLookPath(engine, commandRunner, deps.LookPath, cfg.ProbeTimeout)
	}

	var report status.Report

	group := notify.NewProgressGroup(
		"probing local environment", "", writer,
		notify.WithLabels(notify.ProbingLabels()),
	)

	tasks := make([]notify.ProgressTask, 0, 4)
	for _, probe := range prober.Tasks(cfg.Infrastructure, &report) {
		tasks = append(tasks, notify.ProgressTask{Name: probe.Name, Fn: probe.Run})
	}

	// Failed probes land in the report; the group error only mirrors them.
	_ = group.Run(cmd.Context(), tasks...)

	renderReport(writer, report)

	if !report.Healthy() {
		return ErrUnhealthy
	}

	notify.SuccessWithTimerf(writer, outputTimer, "environment healthy")

	return nil
}

func renderReport(writer io.Writer, report status.Report) {
	renderCheck(writer, "engine", report.Engine)
	renderCheck(writer, "nodes", report.Nodes)

	for _, node := range report.NodeList {
		role := node.Role
		if role == "" {
			role = "node"
		}

		notify.Infof(writer, "%s %s: %s", role, node.Name, node.State)
	}

	renderCheck(writer, "context", report.Context)
	renderCheck(writer, "tools", report.Tools)
}

func renderCheck(writer io.Writer, label string, check status.Check) {
	if check.OK {
		notify.Successf(writer, "%s: %s", label, check.Detail)
	} else {
		notify.Errorf(writer, "%s: %s", label, check.Detail)
	}
}
