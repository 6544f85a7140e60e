package cluster

import (
	"io"
	"strings"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
)

// renderFailure writes the failure the way an operator reads it: what
// stopped, what is missing, and the literal commands to try next.
func renderFailure(writer io.Writer, failure *v1alpha1.Failure) {
	notify.Errorf(writer, "%s: %s", failure.Code, failure.Message)

	details := failure.Details
	if details == nil {
		return
	}

	if len(details.MissingCommands) > 0 {
		notify.Infof(writer, "missing commands: %s", strings.Join(details.MissingCommands, ", "))
	}

	if len(details.MissingFiles) > 0 {
		notify.Infof(writer, "missing files: %s", strings.Join(details.MissingFiles, ", "))
	}

	if details.MissingContext != "" {
		notify.Infof(writer, "missing context: %s", details.MissingContext)
	}

	for _, command := range details.SuggestedCommands {
		notify.Infof(writer, "try: %s", command)
	}
}

// summarizeMetadata prints the per-stage recap. It is called on success and
// on failure alike; partially completed stages still report what they did.
func summarizeMetadata(writer io.Writer, meta v1alpha1.Metadata) {
	if meta.Install != nil && len(meta.Install.Installed) > 0 {
		notify.Infof(writer, "installed via %s: %s",
			meta.Install.Manager, strings.Join(meta.Install.Installed, ", "))
	}

	if meta.Image != nil && meta.Image.Loaded {
		if meta.Image.Built {
			notify.Infof(writer, "image %s built and loaded", meta.Image.Tag)
		} else {
			notify.Infof(writer, "image %s loaded from the local engine", meta.Image.Tag)
		}
	}

	if meta.Provision != nil && meta.Provision.Duration > 0 {
		notify.Infof(writer, "provisioned %s in %s", meta.Provision.Playbook, meta.Provision.Duration)
	}

	if meta.Injection != nil && meta.Injection.Attempted {
		if len(meta.Injection.Updated) > 0 {
			notify.Infof(writer, "context bundle injected into %s",
				strings.Join(meta.Injection.Updated, ", "))
		}

		if len(meta.Injection.Missing) > 0 {
			notify.Warningf(writer, "target workloads not found: %s",
				strings.Join(meta.Injection.Missing, ", "))
		}
	}

	if meta.Dashboard != nil && meta.Dashboard.Enabled {
		if meta.Dashboard.IngressEnabled && meta.Dashboard.URL != "" {
			notify.Infof(writer, "dashboard available at %s", meta.Dashboard.URL)
		} else {
			notify.Infof(writer, "dashboard enabled (no ingress)")
		}
	}
}
