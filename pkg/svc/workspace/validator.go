// Package workspace validates and resolves the configured deploy workspace.
//
// Validation is pure: every configured path is sanitized before anything
// touches the filesystem, then resolved against the repository root and
// checked for existence. Nothing in this package mutates state.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
)

// Paths is the validated workspace resolved to absolute locations.
type Paths struct {
	// Root is the absolute repository root the workspace lives under.
	Root string
	// EnvironmentDir is the absolute infra-as-code environment directory.
	EnvironmentDir string
	// InventoryPath is the absolute configuration-management inventory file.
	InventoryPath string
	// PlaybookPath is the absolute configuration-management playbook file.
	PlaybookPath string
}

// Metadata converts the resolved paths into result metadata.
func (p Paths) Metadata() *v1alpha1.WorkspaceMetadata {
	return &v1alpha1.WorkspaceMetadata{
		Root:           p.Root,
		EnvironmentDir: p.EnvironmentDir,
		InventoryPath:  p.InventoryPath,
		PlaybookPath:   p.PlaybookPath,
	}
}

// Validator is the configuration validation stage of the bootstrap pipeline.
type Validator struct {
	repoRoot string
}

// NewValidator constructs a Validator rooted at repoRoot. An empty root means
// the current working directory.
func NewValidator(repoRoot string) *Validator {
	return &Validator{repoRoot: repoRoot}
}

// Validate sanitizes the configured paths, resolves them against the root,
// and confirms each exists as the expected kind. Unsafe paths fail before any
// filesystem read. All problems are reported together so operators can fix
// the workspace in one pass.
func (v *Validator) Validate(infra v1alpha1.InfrastructureConfig) (*Paths, *v1alpha1.Failure) {
	err := infra.Validate()
	if err != nil {
		return nil, v1alpha1.NewFailure(v1alpha1.FailureConfigMissing, err.Error()).
			WithDetails(v1alpha1.FailureDetails{MissingFiles: unsafePaths(infra)})
	}

	root, err := v.resolveRoot()
	if err != nil {
		return nil, v1alpha1.NewInternalFailure(
			v1alpha1.FailureConfigMissing,
			fmt.Sprintf("resolve repository root: %v", err),
		)
	}

	var (
		missing     []string
		problems    []string
		suggestions []string
	)

	resolved := make(map[string]string, 3)

	for _, configured := range infra.Paths() {
		absolute := filepath.Join(root, filepath.FromSlash(configured.Path))
		resolved[configured.Field] = absolute

		info, statErr := os.Stat(absolute)
		if statErr != nil {
			missing = append(missing, configured.Path)
			problems = append(problems, fmt.Sprintf("%s: %q does not exist", configured.Field, configured.Path))

			if suggestion := copyFromExampleSuggestion(absolute, configured.Path); suggestion != "" {
				suggestions = append(suggestions, suggestion)
			}

			continue
		}

		if info.IsDir() != configured.IsDir {
			missing = append(missing, configured.Path)
			problems = append(problems, fmt.Sprintf(
				"%s: %q is not a %s", configured.Field, configured.Path, pathKind(configured.IsDir)))
		}
	}

	if len(missing) > 0 {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureConfigMissing,
			fmt.Sprintf("deploy workspace under %s is incomplete: %s", root, strings.Join(problems, "; ")),
		).WithDetails(v1alpha1.FailureDetails{
			MissingFiles:      missing,
			SuggestedCommands: suggestions,
		})
	}

	return &Paths{
		Root:           root,
		EnvironmentDir: resolved["environmentDir"],
		InventoryPath:  resolved["inventoryPath"],
		PlaybookPath:   resolved["playbookPath"],
	}, nil
}

// --- internals ---

func (v *Validator) resolveRoot() (string, error) {
	root := v.repoRoot
	if root == "" {
		workingDir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determine working directory: %w", err)
		}

		root = workingDir
	}

	absolute, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", root, err)
	}

	return absolute, nil
}

// unsafePaths lists the configured paths that failed sanitation, preserving
// the configured order.
func unsafePaths(infra v1alpha1.InfrastructureConfig) []string {
	var unsafe []string

	for _, configured := range infra.Paths() {
		if v1alpha1.ValidateRelativePath(configured.Path) != nil {
			unsafe = append(unsafe, configured.Path)
		}
	}

	return unsafe
}

// copyFromExampleSuggestion returns a literal copy command when a sibling
// .example file exists for the missing path.
func copyFromExampleSuggestion(absolute, relative string) string {
	info, err := os.Stat(absolute + ".example")
	if err != nil || info.IsDir() {
		return ""
	}

	return fmt.Sprintf("cp %s.example %s", relative, relative)
}

func pathKind(isDir bool) string {
	if isDir {
		return "directory"
	}

	return "file"
}
