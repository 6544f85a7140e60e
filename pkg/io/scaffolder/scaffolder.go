// Package scaffolder generates the deploy workspace skeleton: the shipyard
// configuration document, a kind cluster config, and example infrastructure
// and provisioning files an operator copies into place and fills in.
package scaffolder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"sigs.k8s.io/kind/pkg/apis/config/v1alpha4"
	"sigs.k8s.io/yaml"
)

const (
	// ConfigFileName is the workspace configuration document.
	ConfigFileName = "shipyard.yaml"

	// KindConfigFileName is the kind cluster configuration.
	KindConfigFileName = "kind.yaml"

	// TerraformExampleName is the example environment definition under the
	// environment directory.
	TerraformExampleName = "main.tf.example"

	// InventoryExampleName is the example configuration-management inventory.
	InventoryExampleName = "inventory.yml.example"

	// PlaybookExampleName is the example provisioning playbook.
	PlaybookExampleName = "playbook.yml.example"

	// BuildFileExampleName is the example image build file.
	BuildFileExampleName = "Dockerfile.example"

	dirPerm  = 0o750
	filePerm = 0o600
)

// ErrEmptyOutputDir is returned when Scaffold is called without a target
// directory.
var ErrEmptyOutputDir = errors.New("output directory is empty")

// terraformExample keeps the output names aligned with what the dashboard
// metadata extractor reads after provisioning.
const terraformExample = `# Copy to main.tf and adjust for your environment.

terraform {
  required_version = ">= 1.5.0"
}

variable "namespace" {
  type    = string
  default = "default"
}

output "dashboard_enabled" {
  value = true
}

output "dashboard_ingress" {
  value = false
}

output "dashboard_url" {
  value = ""
}
`

const inventoryExample = `# Copy to inventory.yml and adjust for your environment.
all:
  hosts:
    localhost:
      ansible_connection: local
`

// playbookExample reads the same environment variables the provisioning
// runner exports, so a copied playbook works without edits.
const playbookExample = `# Copy to playbook.yml and adjust for your environment.
- name: Provision the local environment
  hosts: all
  gather_facts: false
  tasks:
    - name: Show the workloads being provisioned
      ansible.builtin.debug:
        msg: "provisioning {{ lookup('env', 'SHIPYARD_APP_NAME') }} ({{ lookup('env', 'SHIPYARD_APP_IMAGE') | default('no local image', true) }})"
`

const buildFileExample = `# Copy to Dockerfile and adjust for your application.
FROM alpine:3.20

WORKDIR /app
COPY . .

CMD ["/app/run.sh"]
`

// Scaffolder writes the workspace files a fresh checkout needs before the
// bootstrap pipeline can run.
type Scaffolder struct {
	workspace *v1alpha1.Workspace
	writer    io.Writer
	force     bool
}

// NewScaffolder creates a scaffolder for the given workspace document.
// Existing files are kept unless force is set.
func NewScaffolder(workspace *v1alpha1.Workspace, writer io.Writer, force bool) *Scaffolder {
	return &Scaffolder{
		workspace: workspace,
		writer:    writer,
		force:     force,
	}
}

type scaffoldFile struct {
	path    string
	content func() ([]byte, error)
}

// Scaffold writes the workspace skeleton under outputDir.
func (s *Scaffolder) Scaffold(outputDir string) error {
	if outputDir == "" {
		return ErrEmptyOutputDir
	}

	infra := s.workspace.Spec.Infrastructure

	files := []scaffoldFile{
		{path: ConfigFileName, content: s.configContent},
		{path: KindConfigFileName, content: s.kindConfigContent},
		{path: filepath.Join(infra.EnvironmentDir, TerraformExampleName), content: literal(terraformExample)},
		{path: filepath.Join(filepath.Dir(infra.InventoryPath), InventoryExampleName), content: literal(inventoryExample)},
		{path: filepath.Join(filepath.Dir(infra.PlaybookPath), PlaybookExampleName), content: literal(playbookExample)},
		{path: filepath.Join(filepath.Dir(s.workspace.Spec.Image.BuildFile), BuildFileExampleName), content: literal(buildFileExample)},
	}

	for _, file := range files {
		if err := s.writeFile(outputDir, file); err != nil {
			return err
		}
	}

	return nil
}

func (s *Scaffolder) writeFile(outputDir string, file scaffoldFile) error {
	target := filepath.Clean(filepath.Join(outputDir, file.path))

	if !s.force {
		if _, err := os.Stat(target); err == nil {
			notify.Infof(s.writer, "kept existing %s (use --force to overwrite)", file.path)

			return nil
		}
	}

	content, err := file.content()
	if err != nil {
		return fmt.Errorf("render %s: %w", file.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", file.path, err)
	}

	if err := os.WriteFile(target, content, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", file.path, err)
	}

	notify.Generatef(s.writer, "generated %s", file.path)

	return nil
}

func (s *Scaffolder) configContent() ([]byte, error) {
	content, err := yaml.Marshal(s.workspace)
	if err != nil {
		return nil, fmt.Errorf("marshal workspace config: %w", err)
	}

	return content, nil
}

func (s *Scaffolder) kindConfigContent() ([]byte, error) {
	cluster := &v1alpha4.Cluster{
		Name: s.workspace.Spec.Infrastructure.ClusterName(),
		Nodes: []v1alpha4.Node{
			{Role: v1alpha4.ControlPlaneRole},
		},
	}
	cluster.APIVersion = "kind.x-k8s.io/v1alpha4"
	cluster.Kind = "Cluster"

	content, err := yaml.Marshal(cluster)
	if err != nil {
		return nil, fmt.Errorf("marshal kind config: %w", err)
	}

	return content, nil
}

func literal(content string) func() ([]byte, error) {
	return func() ([]byte, error) {
		return []byte(content), nil
	}
}
