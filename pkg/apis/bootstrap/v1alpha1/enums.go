package v1alpha1

import "fmt"

// --- Cluster Kinds ---

// ClusterKind identifies how the local cluster is hosted.
type ClusterKind string

const (
	// ClusterKindKind is a kind-managed local cluster (Kubernetes in Docker).
	ClusterKindKind ClusterKind = "kind"
	// ClusterKindMinikube is a minikube-managed local cluster.
	ClusterKindMinikube ClusterKind = "minikube"
	// ClusterKindExisting is a pre-existing cluster reachable through an
	// already-registered context; no cluster CLI is required.
	ClusterKindExisting ClusterKind = "existing"
)

// ValidClusterKinds returns the supported cluster kinds.
func ValidClusterKinds() []ClusterKind {
	return []ClusterKind{ClusterKindKind, ClusterKindMinikube, ClusterKindExisting}
}

// ClusterCLI returns the cluster-management CLI for the kind, or an empty
// string when none is required.
func (k ClusterKind) ClusterCLI() string {
	switch k {
	case ClusterKindKind:
		return "kind"
	case ClusterKindMinikube:
		return "minikube"
	case ClusterKindExisting:
		return ""
	default:
		return ""
	}
}

// Validate returns an error when the kind is not one of the supported values.
func (k ClusterKind) Validate() error {
	for _, valid := range ValidClusterKinds() {
		if k == valid {
			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrInvalidClusterKind, string(k))
}

// --- Provisioning Modes ---

// Mode selects the provisioning path. Only local provisioning is implemented;
// every other value is rejected before any stage runs.
type Mode string

// ModeLocal provisions onto a locally hosted cluster.
const ModeLocal Mode = "local"

// Validate returns an error for any mode other than local.
func (m Mode) Validate() error {
	if m != ModeLocal {
		return fmt.Errorf("%w: %q (only %q is supported)", ErrUnsupportedMode, string(m), string(ModeLocal))
	}

	return nil
}

// --- Failure Codes ---

// FailureCode identifies the pipeline stage a bootstrap failure originated from.
type FailureCode string

const (
	// FailureBlocked means local command execution is not explicitly enabled.
	FailureBlocked FailureCode = "BLOCKED"
	// FailureConfigMissing means configured paths are invalid or absent.
	FailureConfigMissing FailureCode = "CONFIG_MISSING"
	// FailureToolsMissing means required CLIs are absent and self-healing is off.
	FailureToolsMissing FailureCode = "TOOLS_MISSING"
	// FailureInstallDisabled means tools are missing and auto-install is switched off.
	FailureInstallDisabled FailureCode = "INSTALL_DISABLED"
	// FailureInstallFailed means an install ran and tools are still missing.
	FailureInstallFailed FailureCode = "INSTALL_FAILED"
	// FailureContextMissing means the target cluster context is not registered.
	FailureContextMissing FailureCode = "CONTEXT_MISSING"
	// FailureUnsupportedPlatform means no supported package manager exists on this host.
	FailureUnsupportedPlatform FailureCode = "UNSUPPORTED_PLATFORM"
	// FailureProvisioningFailed means an external tool failed during a mutating stage.
	FailureProvisioningFailed FailureCode = "PROVISIONING_FAILED"
)

// ValidFailureCodes returns every failure code in stage order.
func ValidFailureCodes() []FailureCode {
	return []FailureCode{
		FailureBlocked,
		FailureConfigMissing,
		FailureToolsMissing,
		FailureInstallDisabled,
		FailureInstallFailed,
		FailureContextMissing,
		FailureUnsupportedPlatform,
		FailureProvisioningFailed,
	}
}
