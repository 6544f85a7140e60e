// Package outputs reads optional feature metadata from provisioner outputs.
//
// Extraction is strictly best-effort: a bootstrap that provisioned
// successfully must never fail because its outputs are absent or unparsable,
// so every problem degrades to the conservative fallback.
package outputs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
)

// Output keys read from the provisioner state.
const (
	keyDashboardEnabled = "dashboard_enabled"
	keyDashboardIngress = "dashboard_ingress"
	keyDashboardURL     = "dashboard_url"
)

// terraformOutput is one entry of `terraform output -json`.
type terraformOutput struct {
	Value json.RawMessage `json:"value"`
}

// Extractor reads dashboard metadata from the infra-as-code outputs.
type Extractor struct {
	runner       runner.CommandRunner
	probeTimeout time.Duration
}

// NewExtractor constructs an Extractor. probeTimeout bounds the output read;
// zero applies the runner default.
func NewExtractor(commandRunner runner.CommandRunner, probeTimeout time.Duration) *Extractor {
	return &Extractor{runner: commandRunner, probeTimeout: probeTimeout}
}

// Extract reads dashboard metadata from the environment directory's outputs.
// Reported booleans are trusted as-is; the URL is surfaced only when ingress
// is enabled.
func (e *Extractor) Extract(ctx context.Context, environmentDir string) *v1alpha1.DashboardMetadata {
	read := runner.Command{
		Name:    "terraform",
		Args:    []string{"output", "-json"},
		Dir:     environmentDir,
		Timeout: e.probeTimeout,
	}

	result := e.runner.Run(ctx, read)
	if !result.OK {
		return v1alpha1.FallbackDashboardMetadata()
	}

	var parsed map[string]terraformOutput

	err := json.Unmarshal([]byte(result.Stdout), &parsed)
	if err != nil {
		return v1alpha1.FallbackDashboardMetadata()
	}

	enabled, ok := boolOutput(parsed, keyDashboardEnabled)
	if !ok {
		return v1alpha1.FallbackDashboardMetadata()
	}

	metadata := &v1alpha1.DashboardMetadata{
		Enabled: enabled,
		Source:  v1alpha1.DashboardSourceOutputs,
	}

	ingress, ok := boolOutput(parsed, keyDashboardIngress)
	if ok && ingress {
		metadata.IngressEnabled = true

		if url, ok := stringOutput(parsed, keyDashboardURL); ok {
			metadata.URL = url
		}
	}

	return metadata
}

func boolOutput(parsed map[string]terraformOutput, key string) (bool, bool) {
	raw, ok := parsed[key]
	if !ok {
		return false, false
	}

	var value bool
	if err := json.Unmarshal(raw.Value, &value); err != nil {
		return false, false
	}

	return value, true
}

func stringOutput(parsed map[string]terraformOutput, key string) (string, bool) {
	raw, ok := parsed[key]
	if !ok {
		return "", false
	}

	var value string
	if err := json.Unmarshal(raw.Value, &value); err != nil {
		return "", false
	}

	return value, true
}
