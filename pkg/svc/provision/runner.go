// Package provision runs the configuration-management playbook that stands
// up the deployment's workloads, and classifies failures into targeted
// remediation commands.
package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/svc/workspace"
)

// Request carries everything one provisioning run needs.
type Request struct {
	// Infra is the validated infrastructure configuration.
	Infra v1alpha1.InfrastructureConfig
	// Paths is the resolved workspace the playbook runs against.
	Paths workspace.Paths
	// AppName is handed to the playbook for resource naming.
	AppName string
	// ImageTag, when set, points the playbook at the locally built image.
	ImageTag string
	// Timeout bounds the playbook run; zero applies the runner default.
	Timeout time.Duration
}

// Runner executes the provisioning playbook exactly once per request. There
// is no retry: failures surface maximal diagnostics for human action.
type Runner struct {
	runner runner.CommandRunner
}

// NewRunner constructs a Runner.
func NewRunner(commandRunner runner.CommandRunner) *Runner {
	return &Runner{runner: commandRunner}
}

// Run executes the playbook against the resolved inventory. The returned
// metadata always records what ran and for how long; on failure the output
// is classified into targeted remediation ahead of the generic retry.
func (r *Runner) Run(ctx context.Context, request Request) (*v1alpha1.ProvisionMetadata, *v1alpha1.Failure) {
	playbook := runner.Command{
		Name:    "ansible-playbook",
		Args:    []string{"-i", request.Paths.InventoryPath, request.Paths.PlaybookPath},
		Dir:     request.Paths.Root,
		Env:     environment(request),
		Timeout: request.Timeout,
	}

	start := time.Now()
	result := r.runner.Run(ctx, playbook)

	metadata := &v1alpha1.ProvisionMetadata{
		Playbook:  request.Paths.PlaybookPath,
		Inventory: request.Paths.InventoryPath,
		Duration:  time.Since(start),
	}

	if !result.OK {
		metadata.OutputTail = result.OutputTail()

		return metadata, v1alpha1.NewFailure(
			v1alpha1.FailureProvisioningFailed,
			fmt.Sprintf("provisioning playbook failed: %s", result.Error),
		).WithDetails(v1alpha1.FailureDetails{
			SuggestedCommands: Classify(result.CombinedOutput(), request.Infra, playbook.String()),
		})
	}

	return metadata, nil
}

// environment builds the fixed variable set handed to the playbook. The
// command runner merges it over the ambient environment, so these win on
// duplicate keys.
func environment(request Request) []string {
	env := []string{
		"SHIPYARD_TARGET_DIR=" + request.Paths.EnvironmentDir,
		"SHIPYARD_CLUSTER_KIND=" + string(request.Infra.ClusterKind),
		"SHIPYARD_KUBE_CONTEXT=" + request.Infra.Context,
		"SHIPYARD_NAMESPACE=" + request.Infra.Namespace,
		"SHIPYARD_APP_NAME=" + request.AppName,
	}

	if request.ImageTag != "" {
		env = append(env, "SHIPYARD_APP_IMAGE="+request.ImageTag)
	}

	return env
}
