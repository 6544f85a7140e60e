// Package reset deletes and recreates the local cluster from scratch. It is
// the destructive sibling of the bootstrap pipeline and refuses to run
// without explicit authorization, the execution opt-in, and an exact
// confirmation literal.
package reset

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/svc/bootstrap"
)

// ConfirmationLiteral must be supplied verbatim before anything destructive
// runs.
const ConfirmationLiteral = "reset-local-cluster"

// clusterNamePattern is the allow-list for cluster names handed to the
// cluster CLI.
var clusterNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,31}$`)

// Authorizer decides whether the caller may reset the cluster. The
// surrounding platform injects its access control here; tests swap it out.
type Authorizer interface {
	AuthorizeReset(ctx context.Context) error
}

// AuthorizerFunc adapts a function to the Authorizer interface.
type AuthorizerFunc func(ctx context.Context) error

// AuthorizeReset implements Authorizer.
func (f AuthorizerFunc) AuthorizeReset(ctx context.Context) error {
	return f(ctx)
}

// AllowAll authorizes every reset. The CLI uses it because a local operator
// at their own terminal is implicitly authorized.
func AllowAll() Authorizer {
	return AuthorizerFunc(func(context.Context) error { return nil })
}

// Request is one reset invocation.
type Request struct {
	// Confirmation must equal ConfirmationLiteral.
	Confirmation string
	// ClusterName overrides the default cluster name.
	ClusterName string
}

// Result reports what the reset did, including the literal commands so a
// failed run can be replayed by hand.
type Result struct {
	ClusterName string   `json:"clusterName"`
	Context     string   `json:"context"`
	Deleted     bool     `json:"deleted"`
	Created     bool     `json:"created"`
	NodesReady  bool     `json:"nodesReady"`
	Commands    []string `json:"commands"`
	OutputTail  string   `json:"outputTail,omitempty"`
}

// Options configures the Orchestrator.
type Options struct {
	// Authorizer guards the flow; nil allows everything.
	Authorizer Authorizer
	// ExecutionEnabled is the explicit opt-in for running external tools.
	ExecutionEnabled bool
	// CommandTimeout bounds the delete and create steps; zero applies the
	// runner default.
	CommandTimeout time.Duration
	// LookPath resolves executables; nil uses the real search path.
	LookPath func(name string) (string, error)
}

// Orchestrator runs the delete, create, switch-context, verify-nodes flow.
type Orchestrator struct {
	runner   runner.CommandRunner
	options  Options
	lookPath func(name string) (string, error)
}

// NewOrchestrator constructs an Orchestrator.
func NewOrchestrator(commandRunner runner.CommandRunner, options Options) *Orchestrator {
	lookPath := options.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if options.Authorizer == nil {
		options.Authorizer = AllowAll()
	}

	return &Orchestrator{runner: commandRunner, options: options, lookPath: lookPath}
}

// Reset validates every guard, then deletes, recreates, selects, and verifies
// the local cluster. Guards reject before a single command runs; each step
// fails fast with the literal four-command sequence attached.
func (o *Orchestrator) Reset(ctx context.Context, request Request) (*Result, *v1alpha1.Failure) {
	err := o.options.Authorizer.AuthorizeReset(ctx)
	if err != nil {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureBlocked,
			fmt.Sprintf("cluster reset is not authorized: %v", err),
		)
	}

	if !o.options.ExecutionEnabled {
		return nil, bootstrap.ExecutionDisabledFailure()
	}

	if request.Confirmation != ConfirmationLiteral {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureBlocked,
			fmt.Sprintf("refusing to reset: confirmation %q does not match %q",
				request.Confirmation, ConfirmationLiteral),
		)
	}

	name := request.ClusterName
	if name == "" {
		name = v1alpha1.DefaultClusterName
	}

	if !clusterNamePattern.MatchString(name) {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureConfigMissing,
			fmt.Sprintf("cluster name %q must match %s", name, clusterNamePattern.String()),
		)
	}

	var missing []string

	for _, tool := range []string{"kind", "kubectl"} {
		if _, err := o.lookPath(tool); err != nil {
			missing = append(missing, tool)
		}
	}

	if len(missing) > 0 {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureToolsMissing,
			fmt.Sprintf("cluster reset requires: %s", strings.Join(missing, ", ")),
		).WithDetails(v1alpha1.FailureDetails{MissingCommands: missing})
	}

	return o.run(ctx, name)
}

func (o *Orchestrator) run(ctx context.Context, name string) (*Result, *v1alpha1.Failure) {
	contextName := v1alpha1.DefaultContext(v1alpha1.ClusterKindKind, name)
	steps := o.steps(name, contextName)

	result := &Result{
		ClusterName: name,
		Context:     contextName,
		Commands:    commandLines(steps),
	}

	deleted := o.runner.Run(ctx, steps[0])

	switch {
	case deleted.OK:
		result.Deleted = true
	case strings.Contains(strings.ToLower(deleted.CombinedOutput()), "no clusters found"):
		// Nothing to delete is a valid starting point.
	default:
		return result, o.stepFailure(result, "delete the existing cluster", deleted)
	}

	created := o.runner.Run(ctx, steps[1])
	if !created.OK {
		return result, o.stepFailure(result, "create the cluster", created)
	}

	result.Created = true

	switched := o.runner.Run(ctx, steps[2])
	if !switched.OK {
		return result, o.stepFailure(result, "switch the active context", switched)
	}

	nodes := o.runner.Run(ctx, steps[3])
	if !nodes.OK {
		return result, o.stepFailure(result, "list the cluster nodes", nodes)
	}

	result.NodesReady = true

	return result, nil
}

// steps returns the four commands in execution order.
func (o *Orchestrator) steps(name, contextName string) []runner.Command {
	return []runner.Command{
		{Name: "kind", Args: []string{"delete", "cluster", "--name", name}, Timeout: o.options.CommandTimeout},
		{Name: "kind", Args: []string{"create", "cluster", "--name", name}, Timeout: o.options.CommandTimeout},
		{Name: "kubectl", Args: []string{"config", "use-context", contextName}},
		{Name: "kubectl", Args: []string{"get", "nodes", "--context", contextName}},
	}
}

func (o *Orchestrator) stepFailure(result *Result, action string, stepResult runner.CommandResult) *v1alpha1.Failure {
	result.OutputTail = stepResult.OutputTail()

	return v1alpha1.NewFailure(
		v1alpha1.FailureProvisioningFailed,
		fmt.Sprintf("cluster reset failed to %s: %s", action, stepResult.Error),
	).WithDetails(v1alpha1.FailureDetails{SuggestedCommands: result.Commands})
}

func commandLines(commands []runner.Command) []string {
	lines := make([]string, 0, len(commands))
	for _, command := range commands {
		lines = append(lines, command.String())
	}

	return lines
}
