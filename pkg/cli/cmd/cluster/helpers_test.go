package cluster_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/orchwiz/shipyard/pkg/cli/cmd/cluster"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/di"
	"github.com/orchwiz/shipyard/pkg/io/settings"
	"github.com/orchwiz/shipyard/pkg/ui/timer"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var allTools = []string{"terraform", "ansible-playbook", "kubectl", "docker", "kind", "minikube"}

// testRuntime builds a command runtime with the scripted runner swapped in.
func testRuntime(commandRunner runner.CommandRunner) *di.Runtime {
	return di.New(
		func(injector di.Injector) error {
			do.Provide(injector, func(di.Injector) (timer.Timer, error) {
				return timer.New(), nil
			})

			return nil
		},
		func(injector di.Injector) error {
			do.Provide(injector, func(di.Injector) (runner.CommandRunner, error) {
				return commandRunner, nil
			})

			return nil
		},
	)
}

func lookPathFor(available ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, command := range available {
			if command == name {
				return "/usr/local/bin/" + name, nil
			}
		}

		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
}

func scaffoldRepo(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "terraform", "local"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "deploy", "ansible"), 0o750))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "deploy", "ansible", "inventory.yml"), []byte("all:\n"), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "deploy", "ansible", "playbook.yml"), []byte("- hosts: all\n"), 0o600))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Dockerfile"), []byte("FROM scratch\n"), 0o600))

	return root
}

// newUpCommand mirrors NewUpCmd's wiring with injectable platform seams and a
// captured output buffer.
func newUpCommand(runtimeContainer *di.Runtime, deps cluster.UpDeps) (*cobra.Command, *bytes.Buffer) {
	output := &bytes.Buffer{}

	cmd := &cobra.Command{Use: "up", SilenceUsage: true, SilenceErrors: true}
	cmd.SetOut(output)
	cmd.SetErr(output)

	manager := settings.NewCommandManager(cmd)

	cmd.Flags().Bool("sane-bootstrap", true, "")
	cmd.Flags().String("context-file", "", "")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return cluster.HandleUpRunE(cmd, injector, manager, deps)
	})

	return cmd, output
}

// newResetCommand mirrors NewResetCmd's wiring with injectable seams.
func newResetCommand(runtimeContainer *di.Runtime, deps cluster.ResetDeps) (*cobra.Command, *bytes.Buffer) {
	output := &bytes.Buffer{}

	cmd := &cobra.Command{Use: "reset", SilenceUsage: true, SilenceErrors: true}
	cmd.SetOut(output)
	cmd.SetErr(output)

	manager := settings.NewCommandManager(cmd)

	cmd.Flags().String("confirm", "", "")
	cmd.Flags().String("name", "", "")

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return cluster.HandleResetRunE(cmd, injector, manager, deps)
	})

	return cmd, output
}

// newStatusCommand mirrors NewStatusCmd's wiring with injectable seams.
func newStatusCommand(runtimeContainer *di.Runtime, deps cluster.StatusDeps) (*cobra.Command, *bytes.Buffer) {
	output := &bytes.Buffer{}

	cmd := &cobra.Command{Use: "status", SilenceUsage: true, SilenceErrors: true}
	cmd.SetOut(output)
	cmd.SetErr(output)

	manager := settings.NewCommandManager(cmd)

	cmd.RunE = di.RunEWithRuntime(runtimeContainer, func(cmd *cobra.Command, injector di.Injector) error {
		return cluster.HandleStatusRunE(cmd, injector, manager, deps)
	})

	return cmd, output
}

func readyDeployment(namespace, name string) *appsv1.Deployment {
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace, Generation: 1},
		Spec: appsv1.DeploymentSpec{
			Template: corev1.PodTemplateSpec{
				Spec: corev1.PodSpec{Containers: []corev1.Container{{Name: "app"}}},
			},
		},
		Status: appsv1.DeploymentStatus{
			ObservedGeneration: 1,
			UpdatedReplicas:    1,
			AvailableReplicas:  1,
		},
	}
}
