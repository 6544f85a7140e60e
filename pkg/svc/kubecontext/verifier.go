// Package kubecontext confirms the target cluster context is registered with
// the local container-orchestration CLI before anything mutating runs.
package kubecontext

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
)

// Verifier lists locally registered contexts and checks the target is among
// them.
type Verifier struct {
	runner       runner.CommandRunner
	probeTimeout time.Duration
}

// NewVerifier constructs a Verifier. probeTimeout bounds the context listing;
// zero applies the runner default.
func NewVerifier(commandRunner runner.CommandRunner, probeTimeout time.Duration) *Verifier {
	return &Verifier{runner: commandRunner, probeTimeout: probeTimeout}
}

// Verify returns the discovered context names and, when the target context is
// not registered, a CONTEXT_MISSING failure with bootstrap suggestions for
// the cluster kind. The discovered list is returned even on failure so it
// lands in the result metadata.
func (v *Verifier) Verify(ctx context.Context, infra v1alpha1.InfrastructureConfig) ([]string, *v1alpha1.Failure) {
	list := runner.Command{
		Name:    "kubectl",
		Args:    []string{"config", "get-contexts", "-o", "name"},
		Timeout: v.probeTimeout,
	}

	result := v.runner.Run(ctx, list)
	if !result.OK {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureContextMissing,
			fmt.Sprintf("could not list cluster contexts: %s", result.Error),
		).WithDetails(v1alpha1.FailureDetails{
			MissingContext:    infra.Context,
			SuggestedCommands: BootstrapSuggestions(infra),
		})
	}

	discovered := parseContextNames(result.Stdout)

	for _, name := range discovered {
		if name == infra.Context {
			return discovered, nil
		}
	}

	message := fmt.Sprintf("cluster context %q is not registered", infra.Context)
	if len(discovered) > 0 {
		message = fmt.Sprintf("%s (found: %s)", message, strings.Join(discovered, ", "))
	}

	return discovered, v1alpha1.NewFailure(v1alpha1.FailureContextMissing, message).
		WithDetails(v1alpha1.FailureDetails{
			MissingContext:    infra.Context,
			SuggestedCommands: BootstrapSuggestions(infra),
		})
}

// BootstrapSuggestions returns the literal commands that register the missing
// context for the configured cluster kind. The failure classifier reuses
// these when provisioning output points at an unreachable cluster.
func BootstrapSuggestions(infra v1alpha1.InfrastructureConfig) []string {
	switch infra.ClusterKind {
	case v1alpha1.ClusterKindKind:
		return []string{
			fmt.Sprintf("kind create cluster --name %s", infra.ClusterName()),
			fmt.Sprintf("kubectl config use-context %s", infra.Context),
		}
	case v1alpha1.ClusterKindMinikube:
		return []string{
			fmt.Sprintf("minikube start -p %s", infra.ClusterName()),
			fmt.Sprintf("kubectl config use-context %s", infra.Context),
		}
	case v1alpha1.ClusterKindExisting:
		return []string{
			"kubectl config get-contexts",
			fmt.Sprintf("kubectl config use-context %s", infra.Context),
		}
	default:
		return nil
	}
}

func parseContextNames(output string) []string {
	var names []string

	for _, line := range strings.Split(output, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}

	return names
}
