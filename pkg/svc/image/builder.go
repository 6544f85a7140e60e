// Package image builds the local application image and loads it into the
// local kind cluster. The stage only runs for kind-hosted clusters with sane
// bootstrap and auto-build enabled; the caller handles that gating and
// records the skip.
package image

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
)

// Spec is one image build-and-load request.
type Spec struct {
	// Image is the tag plus workspace-relative build file and context.
	Image v1alpha1.ImageSpec
	// ClusterName is the kind cluster the image is loaded into.
	ClusterName string
	// WorkspaceRoot anchors the build file and context paths.
	WorkspaceRoot string
	// ForceRebuild builds even when an image with the tag already exists.
	ForceRebuild bool
}

// Builder probes, builds, and loads local images through the container
// engine and cluster CLIs.
type Builder struct {
	runner       runner.CommandRunner
	lookPath     func(name string) (string, error)
	buildTimeout time.Duration
	probeTimeout time.Duration
}

// NewBuilder constructs a Builder. buildTimeout bounds builds and loads,
// probeTimeout bounds the image-existence probe; zero applies the runner
// default.
func NewBuilder(commandRunner runner.CommandRunner, buildTimeout, probeTimeout time.Duration) *Builder {
	return &Builder{
		runner:       commandRunner,
		lookPath:     exec.LookPath,
		buildTimeout: buildTimeout,
		probeTimeout: probeTimeout,
	}
}

// NewBuilderWithLookPath constructs a Builder with an injected executable
// resolver for tests.
func NewBuilderWithLookPath(
	commandRunner runner.CommandRunner,
	lookPath func(name string) (string, error),
	buildTimeout, probeTimeout time.Duration,
) *Builder {
	return &Builder{
		runner:       commandRunner,
		lookPath:     lookPath,
		buildTimeout: buildTimeout,
		probeTimeout: probeTimeout,
	}
}

// SkipMetadata records a build stage that did not run.
func SkipMetadata(tag, reason string) *v1alpha1.ImageMetadata {
	return &v1alpha1.ImageMetadata{Tag: tag, SkipReason: reason}
}

// BuildAndLoad builds the configured image unless one with the tag already
// exists, then loads it into the named kind cluster. The returned metadata
// records what ran even when a later step fails.
func (b *Builder) BuildAndLoad(ctx context.Context, spec Spec) (*v1alpha1.ImageMetadata, *v1alpha1.Failure) {
	if _, err := b.lookPath("docker"); err != nil {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureToolsMissing,
			"container engine CLI is required to build the local image",
		).WithDetails(v1alpha1.FailureDetails{MissingCommands: []string{"docker"}})
	}

	if failure := b.validateBuildInputs(spec); failure != nil {
		return nil, failure
	}

	metadata := &v1alpha1.ImageMetadata{Tag: spec.Image.Tag}

	if !spec.ForceRebuild && b.imageExists(ctx, spec.Image.Tag) {
		metadata.SkipReason = "image already exists"
	} else {
		build := runner.Command{
			Name:    "docker",
			Args:    []string{"build", "-t", spec.Image.Tag, "-f", spec.Image.BuildFile, spec.Image.BuildContext},
			Dir:     spec.WorkspaceRoot,
			Timeout: b.buildTimeout,
		}

		result := b.runner.Run(ctx, build)
		if !result.OK {
			metadata.OutputTail = result.OutputTail()

			return metadata, v1alpha1.NewFailure(
				v1alpha1.FailureProvisioningFailed,
				fmt.Sprintf("image build failed for %s", spec.Image.Tag),
			).WithDetails(v1alpha1.FailureDetails{SuggestedCommands: []string{build.String()}})
		}

		metadata.Built = true
	}

	load := runner.Command{
		Name:    "kind",
		Args:    []string{"load", "docker-image", spec.Image.Tag, "--name", spec.ClusterName},
		Timeout: b.buildTimeout,
	}

	result := b.runner.Run(ctx, load)
	if !result.OK {
		metadata.OutputTail = result.OutputTail()

		return metadata, v1alpha1.NewFailure(
			v1alpha1.FailureProvisioningFailed,
			fmt.Sprintf("loading %s into cluster %q failed", spec.Image.Tag, spec.ClusterName),
		).WithDetails(v1alpha1.FailureDetails{SuggestedCommands: []string{load.String()}})
	}

	metadata.Loaded = true

	return metadata, nil
}

// validateBuildInputs sanitizes and resolves the build file and context
// before any command runs. A bare "." context means the workspace root.
func (b *Builder) validateBuildInputs(spec Spec) *v1alpha1.Failure {
	var problems []string

	var missing []string

	checks := []struct {
		field string
		path  string
		isDir bool
	}{
		{field: "buildFile", path: spec.Image.BuildFile, isDir: false},
		{field: "buildContext", path: spec.Image.BuildContext, isDir: true},
	}

	for _, check := range checks {
		if err := validateBuildPath(check.path); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", check.field, err))
			missing = append(missing, check.path)

			continue
		}

		absolute := filepath.Join(spec.WorkspaceRoot, filepath.FromSlash(check.path))

		info, err := os.Stat(absolute)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("%s: %q does not exist", check.field, check.path))
			missing = append(missing, check.path)
		case info.IsDir() != check.isDir:
			problems = append(problems, fmt.Sprintf("%s: %q has the wrong type", check.field, check.path))
			missing = append(missing, check.path)
		}
	}

	if len(problems) > 0 {
		return v1alpha1.NewFailure(
			v1alpha1.FailureConfigMissing,
			fmt.Sprintf("image build inputs are invalid: %s", strings.Join(problems, "; ")),
		).WithDetails(v1alpha1.FailureDetails{MissingFiles: missing})
	}

	return nil
}

func validateBuildPath(path string) error {
	if path == "." {
		return nil
	}

	return v1alpha1.ValidateRelativePath(path)
}

func (b *Builder) imageExists(ctx context.Context, tag string) bool {
	probe := runner.Command{
		Name:    "docker",
		Args:    []string{"image", "inspect", tag},
		Timeout: b.probeTimeout,
	}

	return b.runner.Run(ctx, probe).OK
}
