package v1alpha1_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
)

func TestSucceed(t *testing.T) {
	t.Parallel()

	result := v1alpha1.Succeed(v1alpha1.Metadata{Contexts: []string{"kind-orchwiz"}})

	assert.True(t, result.Succeeded())
	assert.Nil(t, result.Failure)
	assert.Equal(t, []string{"kind-orchwiz"}, result.Metadata.Contexts)
}

func TestFail_PreservesMetadata(t *testing.T) {
	t.Parallel()

	metadata := v1alpha1.Metadata{
		Install: &v1alpha1.InstallMetadata{Manager: "brew", Installed: []string{"kind"}},
	}
	failure := v1alpha1.NewFailure(v1alpha1.FailureContextMissing, "context not registered")

	result := v1alpha1.Fail(failure, metadata)

	assert.False(t, result.Succeeded())
	require.NotNil(t, result.Failure)
	assert.Equal(t, v1alpha1.FailureContextMissing, result.Failure.Code)
	require.NotNil(t, result.Metadata.Install, "partial side effects must stay recorded on failure")
	assert.Equal(t, []string{"kind"}, result.Metadata.Install.Installed)
}

func TestNewFailure_ExpectedFlag(t *testing.T) {
	t.Parallel()

	expected := v1alpha1.NewFailure(v1alpha1.FailureToolsMissing, "kind not found")
	internal := v1alpha1.NewInternalFailure(v1alpha1.FailureProvisioningFailed, "encoder fault")

	assert.True(t, expected.Expected)
	assert.False(t, internal.Expected)
}

func TestFailure_WithDetails(t *testing.T) {
	t.Parallel()

	failure := v1alpha1.NewFailure(v1alpha1.FailureToolsMissing, "missing tools").
		WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   []string{"kind", "terraform"},
			SuggestedCommands: []string{"brew install kind terraform"},
		})

	require.NotNil(t, failure.Details)
	assert.Equal(t, []string{"kind", "terraform"}, failure.Details.MissingCommands)
	assert.Equal(t, []string{"brew install kind terraform"}, failure.Details.SuggestedCommands)
}

func TestResult_JSONShape(t *testing.T) {
	t.Parallel()

	failure := v1alpha1.NewFailure(v1alpha1.FailureBlocked, "execution not enabled")

	payload, err := json.Marshal(v1alpha1.Fail(failure, v1alpha1.Metadata{}))
	require.NoError(t, err)

	var decoded map[string]any

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "failed", decoded["status"])

	failureMap, ok := decoded["failure"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "BLOCKED", failureMap["code"])
	assert.Equal(t, true, failureMap["expected"])
	assert.NotContains(t, failureMap, "details", "empty details must be omitted")
}

func TestFallbackDashboardMetadata(t *testing.T) {
	t.Parallel()

	fallback := v1alpha1.FallbackDashboardMetadata()

	assert.True(t, fallback.Enabled)
	assert.False(t, fallback.IngressEnabled)
	assert.Empty(t, fallback.URL)
	assert.Equal(t, v1alpha1.DashboardSourceFallback, fallback.Source)
}
