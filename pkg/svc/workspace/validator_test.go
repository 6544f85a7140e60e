package workspace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/svc/workspace"
)

// scaffoldWorkspace creates a complete deploy workspace in a temp directory.
func scaffoldWorkspace(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "terraform", "local"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "ansible"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy", "ansible", "inventory.yml"), []byte("all:\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "deploy", "ansible", "playbook.yml"), []byte("- hosts: all\n"), 0o600))

	return root
}

func TestValidate_ResolvesCompleteWorkspace(t *testing.T) {
	t.Parallel()

	root := scaffoldWorkspace(t)
	validator := workspace.NewValidator(root)

	paths, failure := validator.Validate(v1alpha1.DefaultInfrastructureConfig())

	require.Nil(t, failure, "complete workspace must validate")
	require.NotNil(t, paths)
	assert.Equal(t, root, paths.Root)
	assert.Equal(t, filepath.Join(root, "deploy", "terraform", "local"), paths.EnvironmentDir)
	assert.Equal(t, filepath.Join(root, "deploy", "ansible", "inventory.yml"), paths.InventoryPath)
	assert.Equal(t, filepath.Join(root, "deploy", "ansible", "playbook.yml"), paths.PlaybookPath)
}

func TestValidate_MetadataCarriesAbsolutePaths(t *testing.T) {
	t.Parallel()

	root := scaffoldWorkspace(t)
	validator := workspace.NewValidator(root)

	paths, failure := validator.Validate(v1alpha1.DefaultInfrastructureConfig())

	require.Nil(t, failure)

	metadata := paths.Metadata()
	require.NotNil(t, metadata)
	assert.Equal(t, root, metadata.Root)
	assert.True(t, filepath.IsAbs(metadata.EnvironmentDir), "metadata paths must be absolute")
	assert.True(t, filepath.IsAbs(metadata.InventoryPath), "metadata paths must be absolute")
	assert.True(t, filepath.IsAbs(metadata.PlaybookPath), "metadata paths must be absolute")
}

func TestValidate_RejectsTraversalBeforeFilesystemAccess(t *testing.T) {
	t.Parallel()

	// A root that does not exist proves the failure comes from sanitation,
	// not from a stat call.
	validator := workspace.NewValidator(filepath.Join(t.TempDir(), "never-created"))

	infra := v1alpha1.DefaultInfrastructureConfig()
	infra.EnvironmentDir = "deploy/../../etc"

	paths, failure := validator.Validate(infra)

	require.Nil(t, paths)
	require.NotNil(t, failure)
	assert.Equal(t, v1alpha1.FailureConfigMissing, failure.Code)
	assert.True(t, failure.Expected, "unsafe paths are a user-correctable condition")
	require.NotNil(t, failure.Details)
	assert.Equal(t, []string{"deploy/../../etc"}, failure.Details.MissingFiles,
		"only the unsafe path is reported, existence is never checked")
}

func TestValidate_RejectsAbsolutePath(t *testing.T) {
	t.Parallel()

	validator := workspace.NewValidator(scaffoldWorkspace(t))

	infra := v1alpha1.DefaultInfrastructureConfig()
	infra.InventoryPath = "/etc/passwd"

	paths, failure := validator.Validate(infra)

	require.Nil(t, paths)
	require.NotNil(t, failure)
	assert.Equal(t, v1alpha1.FailureConfigMissing, failure.Code)
	require.NotNil(t, failure.Details)
	assert.Contains(t, failure.Details.MissingFiles, "/etc/passwd")
}

func TestValidate_RejectsMissingRequiredFields(t *testing.T) {
	t.Parallel()

	validator := workspace.NewValidator(scaffoldWorkspace(t))

	infra := v1alpha1.DefaultInfrastructureConfig()
	infra.Namespace = ""

	paths, failure := validator.Validate(infra)

	require.Nil(t, paths)
	require.NotNil(t, failure)
	assert.Equal(t, v1alpha1.FailureConfigMissing, failure.Code)
	assert.Contains(t, failure.Message, "namespace")
}

func TestValidate_ReportsAllMissingPathsTogether(t *testing.T) {
	t.Parallel()

	validator := workspace.NewValidator(t.TempDir())

	paths, failure := validator.Validate(v1alpha1.DefaultInfrastructureConfig())

	require.Nil(t, paths)
	require.NotNil(t, failure)
	assert.Equal(t, v1alpha1.FailureConfigMissing, failure.Code)
	require.NotNil(t, failure.Details)
	assert.Equal(t, []string{
		"deploy/terraform/local",
		"deploy/ansible/inventory.yml",
		"deploy/ansible/playbook.yml",
	}, failure.Details.MissingFiles, "every missing path is reported in configured order")
	assert.Contains(t, failure.Message, "environmentDir")
	assert.Contains(t, failure.Message, "inventoryPath")
	assert.Contains(t, failure.Message, "playbookPath")
}

func TestValidate_SuggestsCopyingExampleFiles(t *testing.T) {
	t.Parallel()

	root := scaffoldWorkspace(t)
	inventory := filepath.Join(root, "deploy", "ansible", "inventory.yml")
	require.NoError(t, os.Rename(inventory, inventory+".example"))

	validator := workspace.NewValidator(root)

	paths, failure := validator.Validate(v1alpha1.DefaultInfrastructureConfig())

	require.Nil(t, paths)
	require.NotNil(t, failure)
	require.NotNil(t, failure.Details)
	assert.Equal(t, []string{"deploy/ansible/inventory.yml"}, failure.Details.MissingFiles)
	assert.Equal(t,
		[]string{"cp deploy/ansible/inventory.yml.example deploy/ansible/inventory.yml"},
		failure.Details.SuggestedCommands)
}

func TestValidate_RejectsWrongPathKind(t *testing.T) {
	t.Parallel()

	root := scaffoldWorkspace(t)
	environmentDir := filepath.Join(root, "deploy", "terraform", "local")
	require.NoError(t, os.RemoveAll(environmentDir))
	require.NoError(t, os.WriteFile(environmentDir, []byte("not a directory"), 0o600))

	validator := workspace.NewValidator(root)

	paths, failure := validator.Validate(v1alpha1.DefaultInfrastructureConfig())

	require.Nil(t, paths)
	require.NotNil(t, failure)
	assert.Equal(t, v1alpha1.FailureConfigMissing, failure.Code)
	assert.Contains(t, failure.Message, "is not a directory")
	require.NotNil(t, failure.Details)
	assert.Equal(t, []string{"deploy/terraform/local"}, failure.Details.MissingFiles)
}
