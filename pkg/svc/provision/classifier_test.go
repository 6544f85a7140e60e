package provision_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/svc/provision"
)

const retry = "ansible-playbook -i inventory.yml playbook.yml"

func TestClassify_UnknownOutputKeepsOnlyRetry(t *testing.T) {
	t.Parallel()

	commands := provision.Classify("something nobody has seen before",
		v1alpha1.DefaultInfrastructureConfig(), retry)

	assert.Equal(t, []string{retry}, commands)
}

func TestClassify_ConnectionRefusedSuggestsClusterBootstrap(t *testing.T) {
	t.Parallel()

	output := `fatal: [localhost]: FAILED! => dial tcp 127.0.0.1:6443: connect: Connection refused`

	commands := provision.Classify(output, v1alpha1.DefaultInfrastructureConfig(), retry)

	assert.Equal(t, []string{
		"kind create cluster --name orchwiz",
		"kubectl config use-context kind-orchwiz",
		retry,
	}, commands, "an unreachable API server means the local cluster is down")
}

func TestClassify_MissingChartDependency(t *testing.T) {
	t.Parallel()

	output := `Error: found in Chart.yaml, but missing in charts/ directory: postgresql`

	commands := provision.Classify(output, v1alpha1.DefaultInfrastructureConfig(), retry)

	assert.Equal(t, []string{"helm dependency update", retry}, commands)
}

func TestClassify_InvalidChartReferencePrependsOCIRemediation(t *testing.T) {
	t.Parallel()

	output := `Error: INSTALLATION FAILED: Invalid chart reference: registry.example.com/charts/app`

	commands := provision.Classify(output, v1alpha1.DefaultInfrastructureConfig(), retry)

	require.GreaterOrEqual(t, len(commands), 2)
	assert.Contains(t, commands[0], "oci://", "the OCI remediation comes ahead of the generic retry")
	assert.Equal(t, retry, commands[len(commands)-1])
}

func TestClassify_ImagePullBackOffSuggestsPodInspection(t *testing.T) {
	t.Parallel()

	output := `pod app-7f9 is in ImagePullBackOff`

	commands := provision.Classify(output, v1alpha1.DefaultInfrastructureConfig(), retry)

	assert.Equal(t, []string{
		"kubectl get pods -n orchwiz --context kind-orchwiz",
		"kubectl describe pods -n orchwiz --context kind-orchwiz",
		retry,
	}, commands)
}

func TestClassify_MultipleSignaturesAllContributeInOrder(t *testing.T) {
	t.Parallel()

	output := `connection refused while pulling; later the pod went ImagePullBackOff`

	commands := provision.Classify(output, v1alpha1.DefaultInfrastructureConfig(), retry)

	assert.Equal(t, []string{
		"kind create cluster --name orchwiz",
		"kubectl config use-context kind-orchwiz",
		"kubectl get pods -n orchwiz --context kind-orchwiz",
		"kubectl describe pods -n orchwiz --context kind-orchwiz",
		retry,
	}, commands)
}
