// Package status probes the health of the local environment without mutating
// it: container engine reachability, cluster node containers, context
// registration, and tool availability.
package status

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/client/docker"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/svc/kubecontext"
	"github.com/orchwiz/shipyard/pkg/svc/tooling"
)

// Check is one named probe outcome.
type Check struct {
	// OK is true when the probe found nothing wrong.
	OK bool `json:"ok"`
	// Detail explains the outcome in one line.
	Detail string `json:"detail"`
}

// Report aggregates every probe. Probes are independent; a failing engine
// never stops the context or tool checks from reporting.
type Report struct {
	Engine  Check `json:"engine"`
	Nodes   Check `json:"nodes"`
	Context Check `json:"context"`
	Tools   Check `json:"tools"`

	// NodeList names the cluster node containers found.
	NodeList []docker.Node `json:"nodeList,omitempty"`
	// Contexts lists every locally registered cluster context.
	Contexts []string `json:"contexts,omitempty"`
	// MissingTools lists required CLIs absent from the search path.
	MissingTools []string `json:"missingTools,omitempty"`
}

// Healthy reports whether every probe passed.
func (r Report) Healthy() bool {
	return r.Engine.OK && r.Nodes.OK && r.Context.OK && r.Tools.OK
}

// Prober runs the environment probes.
type Prober struct {
	engine       *docker.Engine
	runner       runner.CommandRunner
	lookPath     func(name string) (string, error)
	probeTimeout time.Duration
}

// NewProber constructs a Prober. A nil engine is tolerated; the engine-backed
// probes then report the engine as unavailable.
func NewProber(engine *docker.Engine, commandRunner runner.CommandRunner, probeTimeout time.Duration) *Prober {
	return &Prober{
		engine:       engine,
		runner:       commandRunner,
		lookPath:     exec.LookPath,
		probeTimeout: probeTimeout,
	}
}

// NewProberWithLookPath constructs a Prober with an injected executable
// resolver for tests.
func NewProberWithLookPath(
	engine *docker.Engine,
	commandRunner runner.CommandRunner,
	lookPath func(name string) (string, error),
	probeTimeout time.Duration,
) *Prober {
	return &Prober{
		engine:       engine,
		runner:       commandRunner,
		lookPath:     lookPath,
		probeTimeout: probeTimeout,
	}
}

// ProbeTask is one named environment probe. Run writes its outcome into the
// report the task was built over and returns an error when the check failed,
// so callers can surface per-probe progress.
type ProbeTask struct {
	Name string
	Run  func(ctx context.Context) error
}

// Tasks returns the independent probes, each recording its outcome in report.
// The probes are read-only and safe to run in parallel.
func (p *Prober) Tasks(infra v1alpha1.InfrastructureConfig, report *Report) []ProbeTask {
	return []ProbeTask{
		{Name: "container engine", Run: func(ctx context.Context) error {
			report.Engine = p.probeEngine(ctx)

			return checkError(report.Engine)
		}},
		{Name: "cluster nodes", Run: func(ctx context.Context) error {
			report.Nodes, report.NodeList = p.probeNodes(ctx, infra)

			return checkError(report.Nodes)
		}},
		{Name: "kubeconfig context", Run: func(ctx context.Context) error {
			report.Context, report.Contexts = p.probeContext(ctx, infra)

			return checkError(report.Context)
		}},
		{Name: "required tools", Run: func(context.Context) error {
			report.Tools, report.MissingTools = p.probeTools(infra)

			return checkError(report.Tools)
		}},
	}
}

// Probe runs all probes concurrently and aggregates their outcomes.
func (p *Prober) Probe(ctx context.Context, infra v1alpha1.InfrastructureConfig) Report {
	var report Report

	var group errgroup.Group

	for _, task := range p.Tasks(infra, &report) {
		group.Go(func() error {
			// Failed checks live in the report; they must not stop siblings.
			_ = task.Run(ctx)

			return nil
		})
	}

	_ = group.Wait()

	return report
}

func checkError(check Check) error {
	if check.OK {
		return nil
	}

	return errors.New(check.Detail)
}

func (p *Prober) probeEngine(ctx context.Context) Check {
	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	err := p.engine.Ping(ctx)
	if err != nil {
		return Check{Detail: err.Error()}
	}

	return Check{OK: true, Detail: "container engine responding"}
}

func (p *Prober) probeNodes(ctx context.Context, infra v1alpha1.InfrastructureConfig) (Check, []docker.Node) {
	if infra.ClusterKind != v1alpha1.ClusterKindKind {
		detail := fmt.Sprintf("node containers are not managed for %q clusters", infra.ClusterKind)

		return Check{OK: true, Detail: detail}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.probeTimeout)
	defer cancel()

	clusterName := infra.ClusterName()

	nodes, err := p.engine.ClusterNodes(ctx, clusterName)
	if err != nil {
		return Check{Detail: err.Error()}, nil
	}

	if len(nodes) == 0 {
		return Check{Detail: fmt.Sprintf("no node containers found for cluster %q", clusterName)}, nil
	}

	running := 0

	for _, node := range nodes {
		if node.State == "running" {
			running++
		}
	}

	if running < len(nodes) {
		detail := fmt.Sprintf("%d of %d node containers running", running, len(nodes))

		return Check{Detail: detail}, nodes
	}

	return Check{OK: true, Detail: fmt.Sprintf("%d node containers running", len(nodes))}, nodes
}

func (p *Prober) probeContext(ctx context.Context, infra v1alpha1.InfrastructureConfig) (Check, []string) {
	contexts, failure := kubecontext.NewVerifier(p.runner, p.probeTimeout).Verify(ctx, infra)
	if failure != nil {
		return Check{Detail: failure.Message}, contexts
	}

	return Check{OK: true, Detail: fmt.Sprintf("context %q is registered", infra.Context)}, contexts
}

func (p *Prober) probeTools(infra v1alpha1.InfrastructureConfig) (Check, []string) {
	missing := tooling.NewCheckerWithLookPath(p.lookPath).Missing(infra.ClusterKind)
	if len(missing) > 0 {
		return Check{Detail: "missing: " + strings.Join(missing, ", ")}, missing
	}

	return Check{OK: true, Detail: "all required tools are installed"}, nil
}
