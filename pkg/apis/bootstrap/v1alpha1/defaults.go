package v1alpha1

import "strings"

// API document identity for shipyard.yaml.
const (
	// APIVersion is the schema version of the workspace document.
	APIVersion = "bootstrap.orchwiz.dev/v1alpha1"
	// WorkspaceKind is the kind of the workspace document.
	WorkspaceKind = "Workspace"
)

// Default infrastructure values for a freshly initialized workspace.
const (
	// DefaultClusterName names the local cluster.
	DefaultClusterName = "orchwiz"
	// DefaultNamespace is the namespace workloads are provisioned into.
	DefaultNamespace = "orchwiz"
	// DefaultWorkspaceName is the provisioner workspace for local environments.
	DefaultWorkspaceName = "local"
	// DefaultAppName is the deployment name used when neither shipyard.yaml
	// nor an override names one.
	DefaultAppName = "orchwiz"
	// DefaultEnvironmentDir is the infra-as-code environment directory.
	DefaultEnvironmentDir = "deploy/terraform/local"
	// DefaultInventoryPath is the configuration-management inventory file.
	DefaultInventoryPath = "deploy/ansible/inventory.yml"
	// DefaultPlaybookPath is the configuration-management playbook file.
	DefaultPlaybookPath = "deploy/ansible/playbook.yml"
)

// Default image build values.
const (
	// DefaultImageTag is the image reference built for the local cluster.
	DefaultImageTag = "orchwiz/app:local"
	// DefaultBuildFile is the container build file.
	DefaultBuildFile = "Dockerfile"
	// DefaultBuildContext is the build context directory.
	DefaultBuildContext = "."
)

// DefaultInfrastructureConfig returns the configuration for the default
// kind-hosted local environment.
func DefaultInfrastructureConfig() InfrastructureConfig {
	return InfrastructureConfig{
		ClusterKind:    ClusterKindKind,
		Context:        DefaultContext(ClusterKindKind, DefaultClusterName),
		Namespace:      DefaultNamespace,
		WorkspaceName:  DefaultWorkspaceName,
		EnvironmentDir: DefaultEnvironmentDir,
		InventoryPath:  DefaultInventoryPath,
		PlaybookPath:   DefaultPlaybookPath,
	}
}

// DefaultContext derives the kubeconfig context a cluster CLI registers for
// a cluster name. Pre-existing clusters have no derivable context.
func DefaultContext(kind ClusterKind, clusterName string) string {
	switch kind {
	case ClusterKindKind:
		return "kind-" + clusterName
	case ClusterKindMinikube:
		return clusterName
	case ClusterKindExisting:
		return ""
	default:
		return ""
	}
}

// ClusterName derives the cluster name the cluster CLI knows the environment
// by, inverting the context naming convention of DefaultContext. Pre-existing
// clusters are not managed by a cluster CLI and have no name.
func (c InfrastructureConfig) ClusterName() string {
	switch c.ClusterKind {
	case ClusterKindKind:
		return strings.TrimPrefix(c.Context, "kind-")
	case ClusterKindMinikube:
		return c.Context
	case ClusterKindExisting:
		return ""
	default:
		return ""
	}
}
