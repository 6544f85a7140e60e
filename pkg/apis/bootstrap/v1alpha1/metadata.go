package v1alpha1

import "time"

// Metadata is the namespaced diagnostics bag attached to every result.
// Stages fill their own section as they run, so a failure still surfaces
// everything completed before it.
type Metadata struct {
	// Workspace records the resolved configuration paths.
	Workspace *WorkspaceMetadata `json:"workspace,omitempty"`
	// Install records what the platform installer did.
	Install *InstallMetadata `json:"install,omitempty"`
	// Contexts lists the cluster contexts discovered during verification.
	Contexts []string `json:"contexts,omitempty"`
	// Image records the conditional image build and load.
	Image *ImageMetadata `json:"image,omitempty"`
	// Provision records the configuration-management run.
	Provision *ProvisionMetadata `json:"provision,omitempty"`
	// Injection summarizes the context bundle injection.
	Injection *InjectionSummary `json:"injection,omitempty"`
	// Dashboard carries optional feature metadata from provisioner outputs.
	Dashboard *DashboardMetadata `json:"dashboard,omitempty"`
}

// WorkspaceMetadata records the absolute locations configuration resolved to.
type WorkspaceMetadata struct {
	Root           string `json:"root"`
	EnvironmentDir string `json:"environmentDir"`
	InventoryPath  string `json:"inventoryPath"`
	PlaybookPath   string `json:"playbookPath"`
}

// InstallMetadata records a platform-installer run, successful or not.
type InstallMetadata struct {
	// Manager is the package manager used (brew, apt-get, dnf, yum).
	Manager string `json:"manager,omitempty"`
	// Requested lists the tools the installer attempted to install.
	Requested []string `json:"requested,omitempty"`
	// Installed lists the tools present after the install.
	Installed []string `json:"installed,omitempty"`
	// StillMissing lists the tools absent even after the install.
	StillMissing []string `json:"stillMissing,omitempty"`
	// OutputTail is the bounded tail of the failing install output.
	OutputTail string `json:"outputTail,omitempty"`
}

// ImageMetadata records the conditional local image build and load.
type ImageMetadata struct {
	// Tag is the resolved image reference threaded into provisioning.
	Tag string `json:"tag"`
	// Built is true when a build ran (false when an existing image was reused).
	Built bool `json:"built"`
	// Loaded is true when the image was loaded into the local cluster.
	Loaded bool `json:"loaded"`
	// SkipReason explains why the build stage did not run.
	SkipReason string `json:"skipReason,omitempty"`
	// OutputTail is the bounded tail of the failing build or load output.
	OutputTail string `json:"outputTail,omitempty"`
}

// ProvisionMetadata records the configuration-management run.
type ProvisionMetadata struct {
	// Playbook is the resolved playbook path that ran.
	Playbook string `json:"playbook"`
	// Inventory is the resolved inventory path used.
	Inventory string `json:"inventory"`
	// Duration is how long the run took.
	Duration time.Duration `json:"duration"`
	// OutputTail is the bounded tail of the run output.
	OutputTail string `json:"outputTail,omitempty"`
}

// InjectionSummary reports context bundle injection accounting. Updated and
// Missing together partition the targets that were processed; partially
// deployed environments are tolerated, so Missing entries are not failures.
type InjectionSummary struct {
	// Attempted is true when injection ran (even against zero live targets).
	Attempted bool `json:"attempted"`
	// SkipReason explains why injection did not run.
	SkipReason string `json:"skipReason,omitempty"`
	// Targets lists the configured target workloads.
	Targets []string `json:"targets,omitempty"`
	// Updated lists the workloads whose environment was patched.
	Updated []string `json:"updated"`
	// Missing lists configured workloads absent from the cluster.
	Missing []string `json:"missing,omitempty"`
	// EncodedBytes is the size of the encoded bundle injected.
	EncodedBytes int `json:"encodedBytes,omitempty"`
}

// Dashboard metadata sources.
const (
	// DashboardSourceOutputs marks metadata read from provisioner outputs.
	DashboardSourceOutputs = "outputs"
	// DashboardSourceFallback marks the conservative defaults used when
	// provisioner outputs are absent or unparsable.
	DashboardSourceFallback = "fallback"
)

// DashboardMetadata is optional feature metadata from provisioner outputs.
type DashboardMetadata struct {
	// Enabled reports whether the dashboard feature is on.
	Enabled bool `json:"enabled"`
	// IngressEnabled reports whether the dashboard is exposed via ingress.
	IngressEnabled bool `json:"ingressEnabled"`
	// URL is the dashboard address; empty unless ingress is enabled.
	URL string `json:"url,omitempty"`
	// Source is DashboardSourceOutputs or DashboardSourceFallback.
	Source string `json:"source"`
}

// FallbackDashboardMetadata returns the conservative defaults used whenever
// provisioner outputs cannot be read or parsed.
func FallbackDashboardMetadata() *DashboardMetadata {
	return &DashboardMetadata{
		Enabled:        true,
		IngressEnabled: false,
		URL:            "",
		Source:         DashboardSourceFallback,
	}
}
