// Package tooling probes for and installs the external commands the
// bootstrap pipeline shells out to.
//
// The Checker reports which required commands are absent. The Installer is
// the self-healing fallback: it only runs when the caller has opted into
// sane bootstrap and auto-install, and it never prompts since bootstraps run
// unattended.
package tooling

import (
	"os/exec"
	"slices"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
)

// baseCommands are required for every bootstrap regardless of cluster kind.
var baseCommands = []string{"terraform", "ansible-playbook", "kubectl", "docker"}

// RequiredCommands returns the commands a bootstrap against the given cluster
// kind depends on, in stable order: the base set plus the kind's cluster CLI.
func RequiredCommands(kind v1alpha1.ClusterKind) []string {
	commands := slices.Clone(baseCommands)

	if cli := kind.ClusterCLI(); cli != "" {
		commands = append(commands, cli)
	}

	return commands
}

// LookPath resolves an executable on the search path. It matches the
// signature of exec.LookPath so tests can substitute a fixed view of the host.
type LookPath func(name string) (string, error)

// Checker reports which required commands are absent from the search path.
type Checker struct {
	lookPath LookPath
}

// NewChecker constructs a Checker probing the real search path.
func NewChecker() *Checker {
	return NewCheckerWithLookPath(exec.LookPath)
}

// NewCheckerWithLookPath constructs a Checker with an injected resolver.
func NewCheckerWithLookPath(lookPath LookPath) *Checker {
	return &Checker{lookPath: lookPath}
}

// Missing returns the required commands absent from the search path, in
// RequiredCommands order. An empty result means the host is ready.
func (c *Checker) Missing(kind v1alpha1.ClusterKind) []string {
	var missing []string

	for _, command := range RequiredCommands(kind) {
		if _, err := c.lookPath(command); err != nil {
			missing = append(missing, command)
		}
	}

	return missing
}
