package bootstrap

import (
	"fmt"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/io/settings"
)

// ExecutionDisabledFailure is the hard stop produced when local command
// execution has not been explicitly enabled. Both the bootstrap pipeline and
// the cluster reset flow refuse to shell out without this opt-in.
func ExecutionDisabledFailure() *v1alpha1.Failure {
	return v1alpha1.NewFailure(
		v1alpha1.FailureBlocked,
		"local command execution is not enabled; refusing to run external tools",
	).WithDetails(v1alpha1.FailureDetails{
		SuggestedCommands: []string{
			fmt.Sprintf("export %s=true", settings.EnvVar(settings.KeyExecutionEnabled)),
			fmt.Sprintf("--%s", settings.KeyExecutionEnabled),
		},
	})
}
