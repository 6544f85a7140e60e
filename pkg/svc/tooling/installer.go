package tooling

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/cmd/runner"
	"github.com/orchwiz/shipyard/pkg/io/settings"
)

// InstallTimeout bounds each package-manager invocation.
const InstallTimeout = 5 * time.Minute

// PrivilegeProbeTimeout bounds the non-interactive sudo probe.
const PrivilegeProbeTimeout = 10 * time.Second

// homebrewInstallCommand is the literal remediation for a macOS host without
// a package manager.
const homebrewInstallCommand = `/bin/bash -c "$(curl -fsSL https://raw.githubusercontent.com/Homebrew/install/HEAD/install.sh)"`

// brewPackages maps tool names to Homebrew package names where they differ.
var brewPackages = map[string]string{
	"ansible-playbook": "ansible",
	"kubectl":          "kubernetes-cli",
}

// linuxPackages maps tool names to Linux package names where they differ.
var linuxPackages = map[string]string{
	"ansible-playbook": "ansible",
}

// packageManager describes one Linux install strategy.
type packageManager struct {
	// Name is the package manager executable.
	Name string
	// UpdateArgs, when set, run once before the install.
	UpdateArgs []string
	// InstallArgs prefix the package list.
	InstallArgs []string
}

// linuxPackageManagers is consulted in order; the first executable present on
// the search path wins.
var linuxPackageManagers = []packageManager{
	{Name: "apt-get", UpdateArgs: []string{"update"}, InstallArgs: []string{"install", "-y"}},
	{Name: "dnf", InstallArgs: []string{"install", "-y"}},
	{Name: "yum", InstallArgs: []string{"install", "-y"}},
}

// manualInstallDocs maps each tool to its installation guide, used when no
// package manager can install it automatically.
var manualInstallDocs = map[string]string{
	"terraform":        "https://developer.hashicorp.com/terraform/install",
	"ansible-playbook": "https://docs.ansible.com/ansible/latest/installation_guide/",
	"kubectl":          "https://kubernetes.io/docs/tasks/tools/",
	"docker":           "https://docs.docker.com/engine/install/",
	"kind":             "https://kind.sigs.k8s.io/docs/user/quick-start/#installation",
	"minikube":         "https://minikube.sigs.k8s.io/docs/start/",
}

// Installer installs missing commands with the host's package manager. It is
// constructed once per bootstrap and never prompts.
type Installer struct {
	runner   runner.CommandRunner
	lookPath LookPath
	goos     string
	isRoot   func() bool
}

// NewInstaller constructs an Installer for the real host platform.
func NewInstaller(commandRunner runner.CommandRunner) *Installer {
	return NewInstallerForPlatform(commandRunner, runtime.GOOS, exec.LookPath, func() bool {
		return os.Geteuid() == 0
	})
}

// NewInstallerForPlatform constructs an Installer with every platform probe
// injected, so tests can exercise each platform branch on any host.
func NewInstallerForPlatform(
	commandRunner runner.CommandRunner,
	goos string,
	lookPath LookPath,
	isRoot func() bool,
) *Installer {
	return &Installer{runner: commandRunner, lookPath: lookPath, goos: goos, isRoot: isRoot}
}

// Install installs the missing commands and re-checks their presence. The
// returned metadata records what happened even when installation fails, so
// partial side effects are never hidden.
func (i *Installer) Install(ctx context.Context, missing []string) (*v1alpha1.InstallMetadata, *v1alpha1.Failure) {
	switch i.goos {
	case "darwin":
		return i.installWithBrew(ctx, missing)
	case "linux":
		return i.installOnLinux(ctx, missing)
	default:
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureUnsupportedPlatform,
			fmt.Sprintf("automatic tool install is not supported on %s", i.goos),
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   missing,
			SuggestedCommands: manualInstallSuggestions(missing),
		})
	}
}

func (i *Installer) installWithBrew(ctx context.Context, missing []string) (*v1alpha1.InstallMetadata, *v1alpha1.Failure) {
	if _, err := i.lookPath("brew"); err != nil {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureUnsupportedPlatform,
			"Homebrew is required to auto-install tools on macOS and was not found",
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   missing,
			SuggestedCommands: append([]string{homebrewInstallCommand}, manualInstallSuggestions(missing)...),
		})
	}

	install := runner.Command{
		Name:    "brew",
		Args:    append([]string{"install"}, packagesFor(brewPackages, missing)...),
		Timeout: InstallTimeout,
	}

	result := i.runner.Run(ctx, install)
	if !result.OK {
		metadata := &v1alpha1.InstallMetadata{
			Manager:      "brew",
			Requested:    missing,
			StillMissing: missing,
			OutputTail:   result.OutputTail(),
		}

		return metadata, v1alpha1.NewFailure(
			v1alpha1.FailureInstallFailed,
			fmt.Sprintf("brew failed to install: %s", strings.Join(missing, ", ")),
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   missing,
			SuggestedCommands: []string{install.String()},
		})
	}

	return i.recheck("brew", missing, install.String())
}

func (i *Installer) installOnLinux(ctx context.Context, missing []string) (*v1alpha1.InstallMetadata, *v1alpha1.Failure) {
	if !i.isRoot() {
		probe := runner.Command{Name: "sudo", Args: []string{"-n", "true"}, Timeout: PrivilegeProbeTimeout}

		result := i.runner.Run(ctx, probe)
		if !result.OK {
			return nil, v1alpha1.NewFailure(
				v1alpha1.FailureInstallFailed,
				"automatic tool install on Linux requires root or passwordless sudo",
			).WithDetails(v1alpha1.FailureDetails{
				MissingCommands:   missing,
				SuggestedCommands: manualLinuxInstallCommands(missing),
			})
		}
	}

	manager, found := i.firstPackageManager()
	if !found {
		return nil, v1alpha1.NewFailure(
			v1alpha1.FailureUnsupportedPlatform,
			fmt.Sprintf("no supported package manager found (%s)", strings.Join(packageManagerNames(), ", ")),
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   missing,
			SuggestedCommands: manualInstallSuggestions(missing),
		})
	}

	if len(manager.UpdateArgs) > 0 {
		update := i.privileged(manager.Name, manager.UpdateArgs)

		result := i.runner.Run(ctx, update)
		if !result.OK {
			metadata := &v1alpha1.InstallMetadata{
				Manager:      manager.Name,
				Requested:    missing,
				StillMissing: missing,
				OutputTail:   result.OutputTail(),
			}

			return metadata, v1alpha1.NewFailure(
				v1alpha1.FailureInstallFailed,
				fmt.Sprintf("%s failed to refresh its package index", manager.Name),
			).WithDetails(v1alpha1.FailureDetails{
				MissingCommands:   missing,
				SuggestedCommands: []string{update.String()},
			})
		}
	}

	install := i.privileged(manager.Name, append(manager.InstallArgs, packagesFor(linuxPackages, missing)...))

	result := i.runner.Run(ctx, install)
	if !result.OK {
		metadata := &v1alpha1.InstallMetadata{
			Manager:      manager.Name,
			Requested:    missing,
			StillMissing: missing,
			OutputTail:   result.OutputTail(),
		}

		return metadata, v1alpha1.NewFailure(
			v1alpha1.FailureInstallFailed,
			fmt.Sprintf("%s failed to install: %s", manager.Name, strings.Join(missing, ", ")),
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   missing,
			SuggestedCommands: []string{install.String()},
		})
	}

	return i.recheck(manager.Name, missing, install.String())
}

// recheck confirms the requested tools actually resolved after the install.
// A package manager can succeed while leaving a tool off the search path, so
// this failure is distinct from the install itself failing.
func (i *Installer) recheck(manager string, requested []string, retryCommand string) (*v1alpha1.InstallMetadata, *v1alpha1.Failure) {
	var installed, stillMissing []string

	for _, tool := range requested {
		if _, err := i.lookPath(tool); err != nil {
			stillMissing = append(stillMissing, tool)
		} else {
			installed = append(installed, tool)
		}
	}

	metadata := &v1alpha1.InstallMetadata{
		Manager:      manager,
		Requested:    requested,
		Installed:    installed,
		StillMissing: stillMissing,
	}

	if len(stillMissing) > 0 {
		return metadata, v1alpha1.NewFailure(
			v1alpha1.FailureInstallFailed,
			fmt.Sprintf("%s reported success but tools are still missing: %s", manager, strings.Join(stillMissing, ", ")),
		).WithDetails(v1alpha1.FailureDetails{
			MissingCommands:   stillMissing,
			SuggestedCommands: append([]string{retryCommand}, manualInstallSuggestions(stillMissing)...),
		})
	}

	return metadata, nil
}

// privileged wraps a package-manager invocation in non-interactive sudo when
// not running as root. The -n flag keeps unattended runs from hanging on a
// password prompt.
func (i *Installer) privileged(name string, args []string) runner.Command {
	if i.isRoot() {
		return runner.Command{Name: name, Args: args, Timeout: InstallTimeout}
	}

	return runner.Command{Name: "sudo", Args: append([]string{"-n", name}, args...), Timeout: InstallTimeout}
}

func (i *Installer) firstPackageManager() (packageManager, bool) {
	for _, manager := range linuxPackageManagers {
		if _, err := i.lookPath(manager.Name); err == nil {
			return manager, true
		}
	}

	return packageManager{}, false
}

// MissingToolsFailure reports absent commands when self-healing is not
// permitted for this bootstrap.
func MissingToolsFailure(goos string, missing []string) *v1alpha1.Failure {
	return v1alpha1.NewFailure(
		v1alpha1.FailureToolsMissing,
		fmt.Sprintf("required tools are missing: %s", strings.Join(missing, ", ")),
	).WithDetails(v1alpha1.FailureDetails{
		MissingCommands:   missing,
		SuggestedCommands: manualPlatformInstallCommands(goos, missing),
	})
}

// InstallDisabledFailure reports absent commands when sane bootstrap permits
// self-healing but the auto-install switch is off.
func InstallDisabledFailure(goos string, missing []string) *v1alpha1.Failure {
	enable := fmt.Sprintf("export %s=true", settings.EnvVar(settings.KeyAutoInstall))

	return v1alpha1.NewFailure(
		v1alpha1.FailureInstallDisabled,
		fmt.Sprintf("required tools are missing and auto-install is disabled: %s", strings.Join(missing, ", ")),
	).WithDetails(v1alpha1.FailureDetails{
		MissingCommands:   missing,
		SuggestedCommands: append([]string{enable}, manualPlatformInstallCommands(goos, missing)...),
	})
}

// manualPlatformInstallCommands returns the batched install command an
// operator would run by hand on the given platform.
func manualPlatformInstallCommands(goos string, missing []string) []string {
	switch goos {
	case "darwin":
		return []string{"brew install " + strings.Join(packagesFor(brewPackages, missing), " ")}
	case "linux":
		return manualLinuxInstallCommands(missing)
	default:
		return manualInstallSuggestions(missing)
	}
}

func manualLinuxInstallCommands(missing []string) []string {
	packages := strings.Join(packagesFor(linuxPackages, missing), " ")

	commands := make([]string, 0, len(linuxPackageManagers))
	for _, manager := range linuxPackageManagers {
		commands = append(commands, fmt.Sprintf(
			"sudo %s %s %s", manager.Name, strings.Join(manager.InstallArgs, " "), packages))
	}

	return commands
}

// manualInstallSuggestions returns one per-tool pointer at the official
// installation guide.
func manualInstallSuggestions(missing []string) []string {
	suggestions := make([]string, 0, len(missing))

	for _, tool := range missing {
		if docs, ok := manualInstallDocs[tool]; ok {
			suggestions = append(suggestions, fmt.Sprintf("install %s manually: %s", tool, docs))
			continue
		}

		suggestions = append(suggestions, fmt.Sprintf("install %s manually and ensure it is on the search path", tool))
	}

	return suggestions
}

func packagesFor(overrides map[string]string, tools []string) []string {
	packages := make([]string, 0, len(tools))

	for _, tool := range tools {
		if name, ok := overrides[tool]; ok {
			packages = append(packages, name)
			continue
		}

		packages = append(packages, tool)
	}

	return packages
}

func packageManagerNames() []string {
	names := make([]string, 0, len(linuxPackageManagers))
	for _, manager := range linuxPackageManagers {
		names = append(names, manager.Name)
	}

	return names
}
