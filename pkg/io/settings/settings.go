package settings

import (
	"strings"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
)

// EnvPrefix is the prefix shared by every shipyard environment variable.
const EnvPrefix = "SHIPYARD"

// ConfigFileName is the base name of the workspace document (shipyard.yaml).
const ConfigFileName = "shipyard"

// Settings keys. Each key doubles as the flag name and, uppercased with
// EnvPrefix, the environment variable name (see EnvVar).
const (
	KeyExecutionEnabled = "execution-enabled"
	KeyAutoInstall      = "auto-install"
	KeyAutoBuild        = "auto-build"
	KeyForceRebuild     = "force-rebuild"
	KeyContextInjection = "context-injection"
	KeyCommandTimeout   = "command-timeout"
	KeyProbeTimeout     = "probe-timeout"
	KeyImageTag         = "image-tag"
	KeyBuildFile        = "build-file"
	KeyBuildContext     = "build-context"
	KeyTargetWorkloads  = "target-workloads"
	KeyRepoRoot         = "repo-root"
	KeyAppName          = "app-name"
	KeyKubeconfig       = "kubeconfig"
)

// Timeout defaults. Probes are short presence checks; provisioning and image
// operations run long enough to need an explicit generous bound.
const (
	// DefaultCommandTimeout bounds provisioning and image operations.
	DefaultCommandTimeout = 10 * time.Minute
	// DefaultProbeTimeout bounds presence probes and context listings.
	DefaultProbeTimeout = 30 * time.Second
)

// Settings is the resolved configuration for one shipyard invocation: the
// workspace document merged with environment and flag overrides. Components
// receive it by value and never mutate it.
type Settings struct {
	// Infrastructure describes the target environment.
	Infrastructure v1alpha1.InfrastructureConfig
	// AppName names the deployment provisioned into the environment.
	AppName string
	// Image configures the conditional local image build.
	Image v1alpha1.ImageSpec
	// TargetWorkloads lists the deployments context bundles are injected into.
	TargetWorkloads []string

	// ExecutionEnabled permits running local commands at all. Off by default;
	// every mutating stage is gated on it.
	ExecutionEnabled bool
	// AutoInstall permits installing missing CLIs via the platform package manager.
	AutoInstall bool
	// AutoBuild permits building and loading the local app image.
	AutoBuild bool
	// ForceRebuild rebuilds the app image even when the tag already exists.
	ForceRebuild bool
	// ContextInjection enables injecting context bundles into workloads.
	ContextInjection bool
	// CommandTimeout bounds provisioning and image operations.
	CommandTimeout time.Duration
	// ProbeTimeout bounds presence probes and other short commands.
	ProbeTimeout time.Duration
	// RepoRoot is the repository root containing the deploy workspace. Empty
	// means the current working directory.
	RepoRoot string
	// Kubeconfig is the kubeconfig path. Empty uses the standard lookup chain.
	Kubeconfig string
}

// envKeyReplacer maps settings keys to their environment variable spelling.
var envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

// EnvVar returns the environment variable that overrides a settings key,
// e.g. EnvVar(KeyExecutionEnabled) == "SHIPYARD_EXECUTION_ENABLED".
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(envKeyReplacer.Replace(key))
}

// splitTargetWorkloads parses the comma-separated target-workload override.
// Blank entries are dropped so trailing commas are harmless.
func splitTargetWorkloads(raw string) []string {
	parts := strings.Split(raw, ",")
	workloads := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			workloads = append(workloads, trimmed)
		}
	}

	if len(workloads) == 0 {
		return nil
	}

	return workloads
}
