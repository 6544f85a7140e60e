package provision

import (
	"fmt"
	"strings"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/svc/kubecontext"
)

// signature is one known failure pattern with its targeted remediation.
// Matching is case-insensitive over the combined output.
type signature struct {
	Match       string
	Remediation func(infra v1alpha1.InfrastructureConfig) []string
}

// signatures is consulted in priority order; every matching signature
// contributes its commands ahead of the generic retry.
var signatures = []signature{
	{
		// The API server is not answering on the configured context, which
		// on a local bootstrap almost always means no cluster is running.
		Match:       "connection refused",
		Remediation: kubecontext.BootstrapSuggestions,
	},
	{
		Match: "missing in charts/ directory",
		Remediation: func(v1alpha1.InfrastructureConfig) []string {
			return []string{"helm dependency update"}
		},
	},
	{
		Match: "invalid chart reference",
		Remediation: func(v1alpha1.InfrastructureConfig) []string {
			return []string{
				"switch the chart repository to an oci:// registry reference",
				"helm dependency update",
			}
		},
	},
	{
		Match: "imagepullbackoff",
		Remediation: func(infra v1alpha1.InfrastructureConfig) []string {
			return []string{
				fmt.Sprintf("kubectl get pods -n %s --context %s", infra.Namespace, infra.Context),
				fmt.Sprintf("kubectl describe pods -n %s --context %s", infra.Namespace, infra.Context),
			}
		},
	},
}

// Classify scans provisioning output for known failure signatures and returns
// their remediation commands ahead of the generic retry command. Multiple
// signatures all contribute, in priority order. Classification is best-effort
// annotation: it adds suggestions, never a different failure.
func Classify(output string, infra v1alpha1.InfrastructureConfig, retryCommand string) []string {
	lowered := strings.ToLower(output)

	var commands []string

	for _, known := range signatures {
		if strings.Contains(lowered, known.Match) {
			commands = append(commands, known.Remediation(infra)...)
		}
	}

	return append(commands, retryCommand)
}
