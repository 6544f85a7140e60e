package bootstrap_test

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/fake"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/svc/bootstrap"
)

func lookPathFor(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, command := range available {
			if command == name {
				return "/usr/local/bin/" + name, nil
			}
		}

		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
}

// lookPathMissingOnce reports the listed commands absent on their first probe
// and present afterwards, mimicking a successful install between checks.
func lookPathMissingOnce(missing ...string) func(string) (string, error) {
	probes := map[string]int{}

	return func(name string) (string, error) {
		if slices.Contains(missing, name) {
			probes[name]++
			if probes[name] == 1 {
				return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
			}
		}

		return "/usr/local/bin/" + name, nil
	}
}

func scaffoldRepo(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "terraform", "local"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "ansible"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "deploy", "ansible", "inventory.yml"), []byte("all:\n"), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "deploy", "ansible", "playbook.yml"), []byte("- hosts: all\n"), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Dockerfile"), []byte("FROM scratch\n"), 0o600))

	return root
}

func testSettings(root string) settings.Settings {
	return settings.Settings{
		Infrastructure: v1alpha1.DefaultInfrastructureConfig(),
		AppName:        v1alpha1.DefaultAppName,
		Image: v1alpha1.ImageSpec{
			Tag:          v1alpha1.DefaultImageTag,
			BuildFile:    v1alpha1.DefaultBuildFile,
			BuildContext: v1alpha1.DefaultBuildContext,
		},
		ExecutionEnabled: true,
		AutoInstall:      true,
		AutoBuild:        true,
		ContextInjection: true,
		CommandTimeout:   settings.DefaultCommandTimeout,
		ProbeTimeout:     settings.DefaultProbeTimeout,
		RepoRoot:         root,
	}
}

func localInput(cfg settings.Settings) v1alpha1.BootstrapInput {
	return v1alpha1.BootstrapInput{
		Infrastructure: cfg.Infrastructure,
		Mode:           v1alpha1.ModeLocal,
		SaneBootstrap:  true,
		AppName:        cfg.AppName,
	}
}

func quietOptions() bootstrap.Options {
	return bootstrap.Options{
		LookPath: lookPathFor("terraform", "ansible-playbook", "kubectl", "docker", "kind", "minikube"),
		Out:      io.Discard,
	}
}

// stubHappyCluster stubs the probes a fully healthy environment answers.
func stubHappyCluster(fakeRunner *runner.FakeRunner) {
	fakeRunner.Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "kind-orchwiz\nminikube\n"})
	fakeRunner.StubFailure("docker image inspect", "Error: No such image: orchwiz/app:local")
	fakeRunner.Stub("terraform output", runner.CommandResult{OK: true, Stdout: "{}"})
}

func readyDeployment(namespace, name string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Generation: 1},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "app"}}},
			},
		},
		Status: appsv1.DeploymentStatus{
			ObservedGeneration: 1,
			UpdatedReplicas:    1,
			AvailableReplicas:  1,
		},
	}
}

func TestBootstrap_FullPipelineSucceeds(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	stubHappyCluster(fakeRunner)

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, quietOptions())
	cfg := testSettings(root)

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.True(t, result.Succeeded(), "failure: %+v", result.Failure)
	assert.Equal(t, []string{
		"kubectl config get-contexts -o name",
		"docker image inspect orchwiz/app:local",
		"docker build -t orchwiz/app:local -f Dockerfile .",
		"kind load docker-image orchwiz/app:local --name orchwiz",
		fmt.Sprintf("ansible-playbook -i %s %s",
			filepath.Join(root, "deploy", "ansible", "inventory.yml"),
			filepath.Join(root, "deploy", "ansible", "playbook.yml")),
		"terraform output -json",
	}, fakeRunner.CommandLines())

	meta := result.Metadata
	require.NotNil(t, meta.Workspace)
	assert.Equal(t, root, meta.Workspace.Root)
	assert.Nil(t, meta.Install, "nothing was missing, so nothing was installed")
	assert.Equal(t, []string{"kind-orchwiz", "minikube"}, meta.Contexts)
	require.NotNil(t, meta.Image)
	assert.True(t, meta.Image.Built)
	assert.True(t, meta.Image.Loaded)
	require.NotNil(t, meta.Provision)
	require.NotNil(t, meta.Injection)
	assert.False(t, meta.Injection.Attempted)
	assert.Equal(t, "no context bundle supplied", meta.Injection.SkipReason)
	require.NotNil(t, meta.Dashboard)
	assert.Equal(t, v1alpha1.DashboardSourceFallback, meta.Dashboard.Source)
}

func TestBootstrap_ThreadsImageTagIntoProvisioning(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	stubHappyCluster(fakeRunner)

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, quietOptions())
	cfg := testSettings(root)

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.True(t, result.Succeeded(), "failure: %+v", result.Failure)

	playbook := findCall(t, fakeRunner, "ansible-playbook")
	assert.Contains(t, playbook.Env, "SHIPYARD_APP_IMAGE=orchwiz/app:local")
	assert.Equal(t, root, playbook.Dir)
}

func TestBootstrap_RejectsUnsupportedMode(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, quietOptions())
	cfg := testSettings(root)
	input := localInput(cfg)
	input.Mode = "remote"

	result := orchestrator.Bootstrap(context.Background(), input, cfg)

	require.False(t, result.Succeeded())
	require.NotNil(t, result.Failure)
	assert.Equal(t, v1alpha1.FailureBlocked, result.Failure.Code)
	assert.True(t, result.Failure.Expected)
	assert.Contains(t, result.Failure.Message, `"remote"`)
	assert.Empty(t, fakeRunner.Calls(), "an unsupported mode rejects before any stage runs")
}

func TestBootstrap_MissingToolsWithoutSaneBootstrap(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()

	options := quietOptions()
	options.LookPath = lookPathFor("ansible-playbook", "kubectl", "docker", "kind")
	options.GOOS = "linux"

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	input := localInput(cfg)
	input.SaneBootstrap = false

	result := orchestrator.Bootstrap(context.Background(), input, cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureToolsMissing, result.Failure.Code)
	require.NotNil(t, result.Failure.Details)
	assert.Equal(t, []string{"terraform"}, result.Failure.Details.MissingCommands)
	assert.Empty(t, fakeRunner.Calls(), "no install or provisioning may run without sane bootstrap")
}

func TestBootstrap_InstallDisabledWhenAutoInstallOff(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()

	options := quietOptions()
	options.LookPath = lookPathFor("ansible-playbook", "kubectl", "docker", "kind")
	options.GOOS = "linux"

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.AutoInstall = false

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureInstallDisabled, result.Failure.Code)
	require.NotNil(t, result.Failure.Details)
	assert.Equal(t, "export SHIPYARD_AUTO_INSTALL=true", result.Failure.Details.SuggestedCommands[0])
	assert.Empty(t, fakeRunner.Calls())
}

func TestBootstrap_InstallsMissingToolsBeforeTheGate(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	fakeRunner.Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "kind-orchwiz\n"})

	options := quietOptions()
	options.LookPath = lookPathMissingOnce("kubectl")
	options.GOOS = "linux"
	options.IsRoot = func() bool { return true }

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.ExecutionEnabled = false

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureBlocked, result.Failure.Code)
	assert.Equal(t, []string{
		"apt-get update",
		"apt-get install -y kubectl",
		"kubectl config get-contexts -o name",
	}, fakeRunner.CommandLines(), "self-healing install and the context check run ahead of the gate")

	require.NotNil(t, result.Metadata.Install, "the install is recorded even though the gate blocked")
	assert.Equal(t, "apt-get", result.Metadata.Install.Manager)
	assert.Equal(t, []string{"kubectl"}, result.Metadata.Install.Installed)
}

func TestBootstrap_GateBlocksEverythingPastTheContextCheck(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	fakeRunner.Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "kind-orchwiz\n"})

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, quietOptions())
	cfg := testSettings(root)
	cfg.ExecutionEnabled = false

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureBlocked, result.Failure.Code)
	require.NotNil(t, result.Failure.Details)
	assert.Contains(t, result.Failure.Details.SuggestedCommands, "export SHIPYARD_EXECUTION_ENABLED=true")
	assert.Equal(t, []string{"kubectl config get-contexts -o name"}, fakeRunner.CommandLines(),
		"nothing past the context check may run")
	assert.Equal(t, []string{"kind-orchwiz"}, result.Metadata.Contexts,
		"the discovered contexts survive the blocked run")
}

func TestBootstrap_MissingContextHaltsWithDiscoveredList(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	fakeRunner.Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "other\nstaging\n"})

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, quietOptions())
	cfg := testSettings(root)

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureContextMissing, result.Failure.Code)
	require.NotNil(t, result.Failure.Details)
	assert.Equal(t, "kind-orchwiz", result.Failure.Details.MissingContext)
	assert.Equal(t, []string{"other", "staging"}, result.Metadata.Contexts)
	assert.Len(t, fakeRunner.Calls(), 1, "the pipeline halts at the failed context check")
}

func TestBootstrap_ProvisioningFailurePreventsInjection(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	stubHappyCluster(fakeRunner)
	fakeRunner.StubFailure("ansible-playbook", "fatal: connection refused while applying manifests")

	factoryCalled := false

	options := quietOptions()
	options.Clientsets = func(string, string) (kubernetes.Interface, error) {
		factoryCalled = true

		return fake.NewClientset(), nil
	}

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.TargetWorkloads = []string{"api"}

	bundle := v1alpha1.BuildContextBundle("dep-7", "roles/api", "api.md\nServe traffic.\n")
	input := localInput(cfg)
	input.Bundle = &bundle

	result := orchestrator.Bootstrap(context.Background(), input, cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureProvisioningFailed, result.Failure.Code)

	require.NotNil(t, result.Failure.Details)
	assert.Equal(t, "kind create cluster --name orchwiz", result.Failure.Details.SuggestedCommands[0],
		"the connection-refused signature contributes its remediation first")

	assert.False(t, factoryCalled, "a provisioning failure prevents context injection entirely")
	assert.Nil(t, result.Metadata.Injection)
	require.NotNil(t, result.Metadata.Provision, "the failed run still records what executed")
	assert.Contains(t, result.Metadata.Provision.OutputTail, "connection refused")
}

func TestBootstrap_InjectsBundleIntoWorkloads(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	stubHappyCluster(fakeRunner)

	clientset := fake.NewClientset(readyDeployment("orchwiz", "api"))

	var gotKubeconfig, gotContext string

	options := quietOptions()
	options.Clientsets = func(kubeconfig, contextName string) (kubernetes.Interface, error) {
		gotKubeconfig, gotContext = kubeconfig, contextName

		return clientset, nil
	}

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.TargetWorkloads = []string{"api"}
	cfg.Kubeconfig = "/home/operator/.kube/config"

	bundle := v1alpha1.BuildContextBundle("dep-7", "roles/api", "api.md\nServe traffic.\n")
	input := localInput(cfg)
	input.Bundle = &bundle

	result := orchestrator.Bootstrap(context.Background(), input, cfg)

	require.True(t, result.Succeeded(), "failure: %+v", result.Failure)
	assert.Equal(t, "/home/operator/.kube/config", gotKubeconfig)
	assert.Equal(t, "kind-orchwiz", gotContext)

	injection := result.Metadata.Injection
	require.NotNil(t, injection)
	assert.True(t, injection.Attempted)
	assert.Equal(t, []string{"api"}, injection.Updated)
	assert.Positive(t, injection.EncodedBytes)
}

func TestBootstrap_ClientsetFailureIsExpected(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	stubHappyCluster(fakeRunner)

	options := quietOptions()
	options.Clientsets = func(string, string) (kubernetes.Interface, error) {
		return nil, fmt.Errorf("stat /home/operator/.kube/config: no such file or directory")
	}

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.TargetWorkloads = []string{"api"}

	bundle := v1alpha1.BuildContextBundle("dep-7", "roles/api", "api.md\nServe traffic.\n")
	input := localInput(cfg)
	input.Bundle = &bundle

	result := orchestrator.Bootstrap(context.Background(), input, cfg)

	require.False(t, result.Succeeded())
	assert.Equal(t, v1alpha1.FailureProvisioningFailed, result.Failure.Code)
	assert.True(t, result.Failure.Expected, "an unreadable kubeconfig is operator-fixable")
	assert.Contains(t, result.Failure.Message, "cannot prepare context injection")
}

func TestBootstrap_ExistingClusterSkipsImageStage(t *testing.T) {
	t.Parallel()

	root := scaffoldRepo(t)
	fakeRunner := runner.NewFakeRunner()
	fakeRunner.Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "prod-cluster\n"})
	fakeRunner.Stub("terraform output", runner.CommandResult{OK: true, Stdout: "{}"})

	options := quietOptions()
	options.LookPath = lookPathFor("terraform", "ansible-playbook", "kubectl", "docker")

	orchestrator := bootstrap.NewOrchestrator(fakeRunner, options)
	cfg := testSettings(root)
	cfg.Infrastructure.ClusterKind = v1alpha1.ClusterKindExisting
	cfg.Infrastructure.Context = "prod-cluster"

	result := orchestrator.Bootstrap(context.Background(), localInput(cfg), cfg)

	require.True(t, result.Succeeded(), "failure: %+v", result.Failure)

	require.NotNil(t, result.Metadata.Image)
	assert.False(t, result.Metadata.Image.Built)
	assert.Contains(t, result.Metadata.Image.SkipReason, "existing")

	for _, line := range fakeRunner.CommandLines() {
		assert.NotContains(t, line, "docker", "no container engine command may run for a pre-existing cluster")
	}

	playbook := findCall(t, fakeRunner, "ansible-playbook")
	for _, entry := range playbook.Env {
		assert.NotContains(t, entry, "SHIPYARD_APP_IMAGE", "no image tag is threaded when the stage is skipped")
	}
}

func findCall(t *testing.T, fakeRunner *runner.FakeRunner, name string) runner.Command {
	t.Helper()

	for _, call := range fakeRunner.Calls() {
		if call.Name == name {
			return call
		}
	}

	t.Fatalf("no %q command was run", name)

	return runner.Command{}
}
