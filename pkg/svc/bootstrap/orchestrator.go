// Package bootstrap chains the stages that stand up or reconfigure a locally
// hosted deployment environment: workspace validation, tool checks with an
// optional self-healing install, context verification, the execution gate,
// the conditional image build, provisioning, context injection, and dashboard
// metadata extraction.
//
// The chain is strictly sequential because every stage depends on side
// effects of the previous one. The first failing stage is terminal for the
// invocation; there is no retry. Metadata accumulated by earlier stages is
// carried on the result either way, so partial side effects are never hidden.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"k8s.io/client-go/kubernetes"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/k8s"
	"github.com/orchwiz/shipyard/pkg/svc/image"
	"github.com/orchwiz/shipyard/pkg/svc/inject"
	"github.com/orchwiz/shipyard/pkg/svc/kubecontext"
	"github.com/orchwiz/shipyard/pkg/svc/outputs"
	"github.com/orchwiz/shipyard/pkg/svc/provision"
	"github.com/orchwiz/shipyard/pkg/svc/tooling"
	"github.com/orchwiz/shipyard/pkg/svc/workspace"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/orchwiz/shipyard/pkg/ui/timer"
)

// ClientsetFactory builds a cluster client for the given kubeconfig path and
// context name. It is only invoked when context injection will actually run.
type ClientsetFactory func(kubeconfig, contextName string) (kubernetes.Interface, error)

// Options configures an Orchestrator. Zero values select the real platform.
type Options struct {
	// LookPath resolves executables; nil uses the real search path.
	LookPath func(name string) (string, error)
	// GOOS overrides the detected operating system for installer dispatch.
	GOOS string
	// IsRoot reports whether the process may install packages directly.
	IsRoot func() bool
	// Clientsets builds cluster clients for context injection.
	Clientsets ClientsetFactory
	// Out receives stage progress messages. Defaults to standard output.
	Out io.Writer
	// Timer, when set, is advanced at each stage boundary.
	Timer timer.Timer
}

// Orchestrator drives one bootstrap invocation through the stage chain.
type Orchestrator struct {
	runner     runner.CommandRunner
	lookPath   func(name string) (string, error)
	goos       string
	isRoot     func() bool
	clientsets ClientsetFactory
	out        io.Writer
	timer      timer.Timer
}

// NewOrchestrator constructs an Orchestrator over the given command runner.
func NewOrchestrator(commandRunner runner.CommandRunner, options Options) *Orchestrator {
	if options.LookPath == nil {
		options.LookPath = exec.LookPath
	}

	if options.GOOS == "" {
		options.GOOS = runtime.GOOS
	}

	if options.IsRoot == nil {
		options.IsRoot = func() bool { return os.Geteuid() == 0 }
	}

	if options.Clientsets == nil {
		options.Clientsets = func(kubeconfig, contextName string) (kubernetes.Interface, error) {
			return k8s.NewClientset(kubeconfig, contextName)
		}
	}

	return &Orchestrator{
		runner:     commandRunner,
		lookPath:   options.LookPath,
		goos:       options.GOOS,
		isRoot:     options.IsRoot,
		clientsets: options.Clientsets,
		out:        options.Out,
		timer:      options.Timer,
	}
}

// Bootstrap runs the full stage chain and produces exactly one result.
func (o *Orchestrator) Bootstrap(
	ctx context.Context,
	input v1alpha1.BootstrapInput,
	cfg settings.Settings,
) v1alpha1.Result {
	meta := v1alpha1.Metadata{}

	err := input.Mode.Validate()
	if err != nil {
		return v1alpha1.Fail(v1alpha1.NewFailure(
			v1alpha1.FailureBlocked,
			fmt.Sprintf("cannot bootstrap: %v", err),
		), meta)
	}

	infra := input.Infrastructure

	o.stage("validating deploy workspace")

	paths, failure := workspace.NewValidator(cfg.RepoRoot).Validate(infra)
	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	meta.Workspace = paths.Metadata()

	o.stage("checking required tools")

	failure = o.ensureTools(ctx, input, cfg, &meta)
	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	o.stage("verifying cluster context %q", infra.Context)

	// The discovered context list is diagnostic metadata even when the
	// target context is missing.
	contexts, failure := kubecontext.NewVerifier(o.runner, cfg.ProbeTimeout).Verify(ctx, infra)
	meta.Contexts = contexts

	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	// Hard stop before any mutating step.
	if !cfg.ExecutionEnabled {
		return v1alpha1.Fail(ExecutionDisabledFailure(), meta)
	}

	imageTag, failure := o.ensureImage(ctx, input, cfg, paths, &meta)
	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	o.stage("running provisioning playbook")

	provisionMeta, failure := provision.NewRunner(o.runner).Run(ctx, provision.Request{
		Infra:    infra,
		Paths:    *paths,
		AppName:  input.AppName,
		ImageTag: imageTag,
		Timeout:  cfg.CommandTimeout,
	})
	meta.Provision = provisionMeta

	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	summary, failure := o.injectContext(ctx, input, cfg)
	meta.Injection = summary

	if failure != nil {
		return v1alpha1.Fail(failure, meta)
	}

	o.stage("reading dashboard metadata")

	meta.Dashboard = outputs.NewExtractor(o.runner, cfg.ProbeTimeout).Extract(ctx, paths.EnvironmentDir)

	return v1alpha1.Succeed(meta)
}

// ensureTools probes for the required CLIs and installs missing ones when
// self-healing is permitted. Install results land in the metadata even when
// installation fails.
func (o *Orchestrator) ensureTools(
	ctx context.Context,
	input v1alpha1.BootstrapInput,
	cfg settings.Settings,
	meta *v1alpha1.Metadata,
) *v1alpha1.Failure {
	missing := tooling.NewCheckerWithLookPath(o.lookPath).Missing(input.Infrastructure.ClusterKind)
	if len(missing) == 0 {
		return nil
	}

	switch {
	case !input.SaneBootstrap:
		return tooling.MissingToolsFailure(o.goos, missing)
	case !cfg.AutoInstall:
		return tooling.InstallDisabledFailure(o.goos, missing)
	}

	o.stage("installing missing tools: %s", strings.Join(missing, ", "))

	installer := tooling.NewInstallerForPlatform(o.runner, o.goos, o.lookPath, o.isRoot)

	installMeta, failure := installer.Install(ctx, missing)
	meta.Install = installMeta

	return failure
}

// ensureImage runs the conditional image stage and returns the tag to thread
// into the provisioning environment. The stage only runs for kind clusters
// with sane bootstrap and auto-build on; anything else records a skip.
func (o *Orchestrator) ensureImage(
	ctx context.Context,
	input v1alpha1.BootstrapInput,
	cfg settings.Settings,
	paths *workspace.Paths,
	meta *v1alpha1.Metadata,
) (string, *v1alpha1.Failure) {
	infra := input.Infrastructure

	skip := func(reason string) (string, *v1alpha1.Failure) {
		notify.Infof(o.out, "skipping image build: %s", reason)
		meta.Image = image.SkipMetadata(cfg.Image.Tag, reason)

		return "", nil
	}

	switch {
	case infra.ClusterKind != v1alpha1.ClusterKindKind:
		return skip(fmt.Sprintf("cluster kind %q has no local image to load", infra.ClusterKind))
	case !input.SaneBootstrap:
		return skip("sane bootstrap is disabled")
	case !cfg.AutoBuild:
		return skip("auto-build is disabled")
	}

	o.stage("building image %s", cfg.Image.Tag)

	builder := image.NewBuilderWithLookPath(o.runner, o.lookPath, cfg.CommandTimeout, cfg.ProbeTimeout)

	imageMeta, failure := builder.BuildAndLoad(ctx, image.Spec{
		Image:         cfg.Image,
		ClusterName:   infra.ClusterName(),
		WorkspaceRoot: paths.Root,
		ForceRebuild:  cfg.ForceRebuild,
	})
	meta.Image = imageMeta

	if failure != nil {
		return "", failure
	}

	return cfg.Image.Tag, nil
}

// injectContext patches the context bundle into the configured workloads. A
// cluster client is only built when the injector will actually attempt work.
func (o *Orchestrator) injectContext(
	ctx context.Context,
	input v1alpha1.BootstrapInput,
	cfg settings.Settings,
) (*v1alpha1.InjectionSummary, *v1alpha1.Failure) {
	request := inject.Request{
		Bundle:    input.Bundle,
		Targets:   cfg.TargetWorkloads,
		Namespace: input.Infrastructure.Namespace,
		Context:   input.Infrastructure.Context,
		Enabled:   cfg.ContextInjection,
	}

	if reason := request.SkipReason(); reason != "" {
		notify.Infof(o.out, "skipping context injection: %s", reason)

		return inject.NewInjector(nil).Inject(ctx, request)
	}

	o.stage("injecting context bundle into %s", strings.Join(request.Targets, ", "))

	clientset, err := o.clientsets(cfg.Kubeconfig, input.Infrastructure.Context)
	if err != nil {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureProvisioningFailed,
			fmt.Sprintf("cannot prepare context injection: %v", err),
		)
	}

	return inject.NewInjector(clientset).Inject(ctx, request)
}

// stage marks a timing stage boundary and announces the activity.
func (o *Orchestrator) stage(format string, args ...any) {
	if o.timer != nil {
		o.timer.NewStage()
	}

	notify.Activityf(o.out, format, args...)
}
