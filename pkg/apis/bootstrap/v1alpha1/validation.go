package v1alpha1

import (
	"fmt"
	"regexp"
	"strings"
)

// driveLetterRegex matches Windows drive-letter prefixes such as C:\ or d:/.
var driveLetterRegex = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// ValidateRelativePath rejects paths that could escape the workspace:
// absolute paths, drive-letter paths, traversal segments, and null bytes.
// Both / and \ are treated as separators so Windows-style input cannot
// smuggle segments past the check.
func ValidateRelativePath(path string) error {
	if path == "" {
		return ErrPathEmpty
	}

	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("%w: %q", ErrPathInvalidCharacter, path)
	}

	if strings.HasPrefix(path, "/") || strings.HasPrefix(path, "\\") || driveLetterRegex.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrPathAbsolute, path)
	}

	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == "." || segment == ".." {
			return fmt.Errorf("%w: %q", ErrPathTraversal, path)
		}
	}

	return nil
}

// ConfiguredPath is one workspace-relative path with the field it came from
// and whether it must resolve to a directory or a file.
type ConfiguredPath struct {
	Field string
	Path  string
	IsDir bool
}

// Paths returns the configured workspace-relative paths in a fixed order.
func (c InfrastructureConfig) Paths() []ConfiguredPath {
	return []ConfiguredPath{
		{Field: "environmentDir", Path: c.EnvironmentDir, IsDir: true},
		{Field: "inventoryPath", Path: c.InventoryPath, IsDir: false},
		{Field: "playbookPath", Path: c.PlaybookPath, IsDir: false},
	}
}

// Validate checks the whole configuration: a supported cluster kind,
// non-empty identifiers, and safe workspace-relative paths. All problems are
// reported together so operators fix the configuration in one pass.
func (c InfrastructureConfig) Validate() error {
	var problems []string

	if err := c.ClusterKind.Validate(); err != nil {
		problems = append(problems, err.Error())
	}

	requiredFields := []struct {
		name  string
		value string
	}{
		{name: "context", value: c.Context},
		{name: "namespace", value: c.Namespace},
		{name: "workspaceName", value: c.WorkspaceName},
	}

	for _, field := range requiredFields {
		if strings.TrimSpace(field.value) == "" {
			problems = append(problems, fmt.Sprintf("%s: %v", field.name, ErrFieldRequired))
		}
	}

	for _, configured := range c.Paths() {
		if err := ValidateRelativePath(configured.Path); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", configured.Field, err))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid infrastructure config: %s", strings.Join(problems, "; "))
	}

	return nil
}
