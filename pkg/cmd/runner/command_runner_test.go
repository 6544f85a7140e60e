package runner_test

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orchwiz/shipyard/pkg/cmd/runner"
)

func skipOnWindows(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell not available")
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		command runner.Command
		want    string
	}{
		{
			name:    "no args",
			command: runner.Command{Name: "kind"},
			want:    "kind",
		},
		{
			name:    "with args",
			command: runner.Command{Name: "kind", Args: []string{"create", "cluster", "--name", "orchwiz"}},
			want:    "kind create cluster --name orchwiz",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, testCase.command.String())
		})
	}
}

func TestCommandResult_CombinedOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		result runner.CommandResult
		want   string
	}{
		{name: "stdout only", result: runner.CommandResult{Stdout: "out"}, want: "out"},
		{name: "stderr only", result: runner.CommandResult{Stderr: "err"}, want: "err"},
		{name: "both", result: runner.CommandResult{Stdout: "out", Stderr: "err"}, want: "out\nerr"},
		{name: "neither", result: runner.CommandResult{}, want: ""},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.want, testCase.result.CombinedOutput())
		})
	}
}

func TestCommandResult_OutputTail(t *testing.T) {
	t.Parallel()

	short := runner.CommandResult{Stdout: "short output"}
	assert.Equal(t, "short output", short.OutputTail())

	long := runner.CommandResult{Stdout: strings.Repeat("a", runner.OutputTailLimit) + "tail-end"}
	tail := long.OutputTail()
	assert.Len(t, tail, runner.OutputTailLimit)
	assert.True(t, strings.HasSuffix(tail, "tail-end"), "tail keeps the end of the output")
}

func TestExecRunner_Run_Success(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	execRunner := runner.NewExecRunner()

	result := execRunner.Run(context.Background(), runner.Command{
		Name: "sh",
		Args: []string{"-c", "echo hello"},
	})

	require.True(t, result.OK, "expected success: %+v", result)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Empty(t, result.Error)
}

func TestExecRunner_Run_NonZeroExit(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	execRunner := runner.NewExecRunner()

	result := execRunner.Run(context.Background(), runner.Command{
		Name: "sh",
		Args: []string{"-c", "echo boom >&2; exit 3"},
	})

	require.False(t, result.OK)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "boom\n", result.Stderr)
	assert.NotEmpty(t, result.Error)
}

func TestExecRunner_Run_MissingExecutable(t *testing.T) {
	t.Parallel()

	execRunner := runner.NewExecRunner()

	result := execRunner.Run(context.Background(), runner.Command{
		Name: "definitely-not-a-real-binary-424242",
	})

	require.False(t, result.OK)
	assert.Equal(t, -1, result.ExitCode)
	assert.NotEmpty(t, result.Error)
}

func TestExecRunner_Run_Timeout(t *testing.T) {
	t.Parallel()
	skipOnWindows(t)

	execRunner := runner.NewExecRunner()

	start := time.Now()
	result := execRunner.Run(context.Background(), runner.Command{
		Name:    "sh",
		Args:    []string{"-c", "sleep 10"},
		Timeout: 100 * time.Millisecond,
	})

	require.False(t, result.OK)
	assert.Contains(t, result.Error, "timed out")
	assert.Less(t, time.Since(start), 5*time.Second, "timed-out process must not be left hanging")
}

func TestExecRunner_Run_EnvOverridesAmbient(t *testing.T) {
	skipOnWindows(t)

	t.Setenv("SHIPYARD_RUNNER_TEST", "ambient")

	execRunner := runner.NewExecRunner()

	result := execRunner.Run(context.Background(), runner.Command{
		Name: "sh",
		Args: []string{"-c", "printf '%s' \"$SHIPYARD_RUNNER_TEST\""},
		Env:  []string{"SHIPYARD_RUNNER_TEST=injected"},
	})

	require.True(t, result.OK, "expected success: %+v", result)
	assert.Equal(t, "injected", result.Stdout)
}

func TestFakeRunner_LongestPrefixWins(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner().
		Stub("kubectl", runner.CommandResult{OK: true, Stdout: "generic"}).
		Stub("kubectl config get-contexts", runner.CommandResult{OK: true, Stdout: "specific"})

	result := fake.Run(context.Background(), runner.Command{
		Name: "kubectl",
		Args: []string{"config", "get-contexts", "-o", "name"},
	})

	assert.Equal(t, "specific", result.Stdout)
}

func TestFakeRunner_ConsumesResponsesInOrder(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner().
		Stub("docker image inspect", runner.CommandResult{OK: false, ExitCode: 1}).
		Stub("docker image inspect", runner.CommandResult{OK: true})

	first := fake.Run(context.Background(), runner.Command{Name: "docker", Args: []string{"image", "inspect", "x"}})
	second := fake.Run(context.Background(), runner.Command{Name: "docker", Args: []string{"image", "inspect", "x"}})
	third := fake.Run(context.Background(), runner.Command{Name: "docker", Args: []string{"image", "inspect", "x"}})

	assert.False(t, first.OK)
	assert.True(t, second.OK, "second response should be consumed next")
	assert.True(t, third.OK, "last response repeats")
}

func TestFakeRunner_RecordsCalls(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner()

	fake.Run(context.Background(), runner.Command{Name: "kind", Args: []string{"get", "clusters"}})
	fake.Run(context.Background(), runner.Command{Name: "kubectl", Args: []string{"get", "nodes"}})

	require.Len(t, fake.Calls(), 2)
	assert.Equal(t, []string{"kind get clusters", "kubectl get nodes"}, fake.CommandLines())
}

func TestFakeRunner_UnmatchedCommandSucceeds(t *testing.T) {
	t.Parallel()

	fake := runner.NewFakeRunner()

	result := fake.Run(context.Background(), runner.Command{Name: "terraform", Args: []string{"output"}})

	assert.True(t, result.OK)
	assert.Empty(t, result.Stdout)
}
