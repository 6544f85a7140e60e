package v1alpha1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// InfrastructureConfig describes where and how the local environment is
// provisioned. Every path is workspace-relative; validation rejects absolute
// paths and traversal segments before anything touches the filesystem.
type InfrastructureConfig struct {
	// ClusterKind selects how the local cluster is hosted.
	ClusterKind ClusterKind `json:"clusterKind,omitempty" yaml:"clusterKind,omitempty"`
	// Context is the kubeconfig context the environment is reachable through.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	// Namespace is the namespace workloads are provisioned into.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	// WorkspaceName is the provisioner workspace the environment belongs to.
	WorkspaceName string `json:"workspaceName,omitempty" yaml:"workspaceName,omitempty"`
	// EnvironmentDir is the workspace-relative infra-as-code environment directory.
	EnvironmentDir string `json:"environmentDir,omitempty" yaml:"environmentDir,omitempty"`
	// InventoryPath is the workspace-relative configuration-management inventory file.
	InventoryPath string `json:"inventoryPath,omitempty" yaml:"inventoryPath,omitempty"`
	// PlaybookPath is the workspace-relative configuration-management playbook file.
	PlaybookPath string `json:"playbookPath,omitempty" yaml:"playbookPath,omitempty"`
}

// BootstrapInput is the per-call input to the bootstrap pipeline, constructed
// once from caller-supplied deployment configuration.
type BootstrapInput struct {
	// Infrastructure describes the target environment.
	Infrastructure InfrastructureConfig `json:"infrastructure"`
	// Mode selects the provisioning path; only ModeLocal is accepted.
	Mode Mode `json:"mode"`
	// SaneBootstrap permits self-healing actions (tool install, image build)
	// beyond pure validation.
	SaneBootstrap bool `json:"saneBootstrap"`
	// AppName names the deployment the environment is provisioned for.
	AppName string `json:"appName,omitempty"`
	// Bundle is an optional context bundle to inject into running workloads.
	Bundle *ContextBundle `json:"bundle,omitempty"`
}

// Workspace is the shipyard.yaml configuration document. It carries the
// checked-in defaults that flags and SHIPYARD_ environment variables override.
type Workspace struct {
	metav1.TypeMeta `json:",inline" yaml:",inline"`

	// Spec holds the workspace configuration.
	Spec WorkspaceSpec `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// WorkspaceSpec is the configurable part of the workspace document.
type WorkspaceSpec struct {
	// Infrastructure describes the local environment to provision.
	Infrastructure InfrastructureConfig `json:"infrastructure,omitempty" yaml:"infrastructure,omitempty"`
	// AppName overrides the deployment name derived from the workspace.
	AppName string `json:"appName,omitempty" yaml:"appName,omitempty"`
	// Image configures the local image build.
	Image ImageSpec `json:"image,omitempty" yaml:"image,omitempty"`
	// TargetWorkloads lists the deployments context bundles are injected into.
	TargetWorkloads []string `json:"targetWorkloads,omitempty" yaml:"targetWorkloads,omitempty"`
}

// ImageSpec configures the conditional local image build.
type ImageSpec struct {
	// Tag is the image reference built and loaded into the local cluster.
	Tag string `json:"tag,omitempty" yaml:"tag,omitempty"`
	// BuildFile is the workspace-relative container build file.
	BuildFile string `json:"buildFile,omitempty" yaml:"buildFile,omitempty"`
	// BuildContext is the workspace-relative build context directory.
	BuildContext string `json:"buildContext,omitempty" yaml:"buildContext,omitempty"`
}

// NewWorkspace constructs a Workspace document with defaults applied.
func NewWorkspace() *Workspace {
	return &Workspace{
		TypeMeta: metav1.TypeMeta{
			APIVersion: APIVersion,
			Kind:       WorkspaceKind,
		},
		Spec: WorkspaceSpec{
			Infrastructure: DefaultInfrastructureConfig(),
			Image: ImageSpec{
				Tag:          DefaultImageTag,
				BuildFile:    DefaultBuildFile,
				BuildContext: DefaultBuildContext,
			},
		},
	}
}
