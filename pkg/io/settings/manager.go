package settings

import (
	"errors"
	"fmt"
	"io"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/ui/notify"
	"github.com/orchwiz/shipyard/pkg/ui/timer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrUnsupportedDocument is returned when shipyard.yaml carries an apiVersion
// or kind this build does not understand.
var ErrUnsupportedDocument = errors.New("unsupported shipyard.yaml document")

// LoadOptions configures how settings are loaded.
type LoadOptions struct {
	// Timer enables timing output in notifications when provided.
	Timer timer.Timer
	// Silent suppresses all loading notifications when true.
	Silent bool
	// IgnoreConfigFile skips reading shipyard.yaml when true (flags/env/defaults only).
	IgnoreConfigFile bool
}

// Loader resolves the effective settings for a command invocation.
type Loader interface {
	// Load loads the settings with the specified options.
	// Returns the resolved settings, either freshly loaded or previously cached.
	Load(opts LoadOptions) (*Settings, error)
}

// Manager implements settings loading over Viper.
type Manager struct {
	Viper *viper.Viper
	// Settings is the cached resolved settings after a successful Load.
	Settings  *Settings
	loaded    bool
	fileFound bool
	Writer    io.Writer
}

// Compile-time interface compliance verification.
var _ Loader = (*Manager)(nil)

// NewManager creates a settings manager with Viper fully initialized for
// config-file discovery and environment handling.
func NewManager(writer io.Writer) *Manager {
	return &Manager{
		Viper:  InitializeViper(),
		Writer: writer,
	}
}

// NewCommandManager constructs a Manager bound to the provided Cobra command.
// It registers the settings flags on the command and binds them into Viper,
// and writes output to the command's standard output writer.
func NewCommandManager(cmd *cobra.Command) *Manager {
	manager := NewManager(cmd.OutOrStdout())
	manager.AddFlags(cmd.Flags())

	return manager
}

// InitializeViper creates a Viper instance wired for shipyard: shipyard.yaml
// discovery in the working directory, SHIPYARD_ environment variables, and
// defaults for every settings key.
func InitializeViper() *viper.Viper {
	viperInstance := viper.New()
	viperInstance.SetConfigName(ConfigFileName)
	viperInstance.SetConfigType("yaml")
	viperInstance.AddConfigPath(".")
	viperInstance.SetEnvPrefix(EnvPrefix)
	viperInstance.SetEnvKeyReplacer(envKeyReplacer)
	viperInstance.AutomaticEnv()
	setDefaults(viperInstance)

	return viperInstance
}

// setDefaults establishes defaults for the flat settings keys. Workspace
// document defaults are applied separately by v1alpha1.NewWorkspace so the
// document keeps its own schema.
func setDefaults(viperInstance *viper.Viper) {
	viperInstance.SetDefault(KeyExecutionEnabled, false)
	viperInstance.SetDefault(KeyAutoInstall, false)
	viperInstance.SetDefault(KeyAutoBuild, true)
	viperInstance.SetDefault(KeyForceRebuild, false)
	viperInstance.SetDefault(KeyContextInjection, true)
	viperInstance.SetDefault(KeyCommandTimeout, DefaultCommandTimeout)
	viperInstance.SetDefault(KeyProbeTimeout, DefaultProbeTimeout)
	viperInstance.SetDefault(KeyImageTag, "")
	viperInstance.SetDefault(KeyBuildFile, "")
	viperInstance.SetDefault(KeyBuildContext, "")
	viperInstance.SetDefault(KeyTargetWorkloads, "")
	viperInstance.SetDefault(KeyRepoRoot, "")
	viperInstance.SetDefault(KeyAppName, "")
	viperInstance.SetDefault(KeyKubeconfig, "")
}

// AddFlags registers the settings flags and binds each one into Viper so the
// priority chain (defaults < file < env < flags) resolves automatically.
func (m *Manager) AddFlags(flags *pflag.FlagSet) {
	flags.Bool(KeyExecutionEnabled, false,
		"Allow shipyard to run local commands (required for any mutating step)")
	flags.Bool(KeyAutoInstall, false,
		"Install missing CLIs with the platform package manager")
	flags.Bool(KeyAutoBuild, true,
		"Build and load the local app image before provisioning")
	flags.Bool(KeyForceRebuild, false,
		"Rebuild the app image even when the configured tag already exists")
	flags.Bool(KeyContextInjection, true,
		"Inject the context bundle into target workloads after provisioning")
	flags.Duration(KeyCommandTimeout, DefaultCommandTimeout,
		"Timeout for provisioning and image operations")
	flags.Duration(KeyProbeTimeout, DefaultProbeTimeout,
		"Timeout for presence probes and context listings")
	flags.String(KeyImageTag, "",
		"Image tag to build and load (overrides shipyard.yaml)")
	flags.String(KeyBuildFile, "",
		"Container build file (overrides shipyard.yaml)")
	flags.String(KeyBuildContext, "",
		"Container build context directory (overrides shipyard.yaml)")
	flags.String(KeyTargetWorkloads, "",
		"Comma-separated deployments to inject the context bundle into")
	flags.String(KeyRepoRoot, "",
		"Repository root containing the deploy workspace")
	flags.String(KeyAppName, "",
		"Deployment name provisioned into the environment")
	flags.String(KeyKubeconfig, "",
		"Path to the kubeconfig file")

	for _, key := range settingsKeys() {
		if flag := flags.Lookup(key); flag != nil {
			_ = m.Viper.BindPFlag(key, flag)
		}
	}
}

func settingsKeys() []string {
	return []string{
		KeyExecutionEnabled,
		KeyAutoInstall,
		KeyAutoBuild,
		KeyForceRebuild,
		KeyContextInjection,
		KeyCommandTimeout,
		KeyProbeTimeout,
		KeyImageTag,
		KeyBuildFile,
		KeyBuildContext,
		KeyTargetWorkloads,
		KeyRepoRoot,
		KeyAppName,
		KeyKubeconfig,
	}
}

// Load loads the settings from shipyard.yaml, environment variables, and
// bound flags. Returns the resolved settings (freshly loaded or previously
// cached) and an error when loading or document validation failed.
// Configuration priority: defaults < shipyard.yaml < environment variables < flags.
func (m *Manager) Load(opts LoadOptions) (*Settings, error) {
	if !opts.Silent {
		m.notifyLoadingStart()
	}

	if m.loaded {
		if !opts.Silent {
			m.notifyReused()
		}

		return m.Settings, nil
	}

	if !opts.Silent {
		m.notifyLoading()
	}

	if !opts.IgnoreConfigFile {
		err := m.readConfig(opts.Silent)
		if err != nil {
			return nil, err
		}
	}

	workspace, err := m.unmarshalDocument()
	if err != nil {
		return nil, err
	}

	err = m.validateDocument(workspace)
	if err != nil {
		return nil, err
	}

	m.Settings = m.assembleSettings(workspace)
	m.loaded = true

	if !opts.Silent {
		m.notifyLoadingComplete(opts.Timer)
	}

	return m.Settings, nil
}

func (m *Manager) readConfig(silent bool) error {
	// A repo-root override also relocates where shipyard.yaml is searched for.
	repoRoot := m.Viper.GetString(KeyRepoRoot)
	if repoRoot != "" {
		m.Viper.AddConfigPath(repoRoot)
	}

	err := m.Viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config file: %w", err)
		}

		m.fileFound = false
		if !silent {
			m.notifyUsingDefaults()
		}
	} else {
		m.fileFound = true
		if !silent {
			m.notifyConfigFound()
		}
	}

	return nil
}

func (m *Manager) unmarshalDocument() (*v1alpha1.Workspace, error) {
	workspace := v1alpha1.NewWorkspace()

	// Reset TypeMeta only when a document was found so validation catches
	// incorrect values from files while env-only loads keep the defaults.
	if m.fileFound {
		workspace.APIVersion = ""
		workspace.Kind = ""
	}

	decoderConfig := func(decoder *mapstructure.DecoderConfig) {
		// The document embeds TypeMeta, so apiVersion and kind only decode
		// with embedded structs squashed.
		decoder.Squash = true
		decoder.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}

	err := m.Viper.Unmarshal(workspace, decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return workspace, nil
}

func (m *Manager) validateDocument(workspace *v1alpha1.Workspace) error {
	if workspace.APIVersion != v1alpha1.APIVersion {
		return fmt.Errorf("%w: apiVersion %q (expected %q)",
			ErrUnsupportedDocument, workspace.APIVersion, v1alpha1.APIVersion)
	}

	if workspace.Kind != v1alpha1.WorkspaceKind {
		return fmt.Errorf("%w: kind %q (expected %q)",
			ErrUnsupportedDocument, workspace.Kind, v1alpha1.WorkspaceKind)
	}

	err := workspace.Spec.Infrastructure.ClusterKind.Validate()
	if err != nil {
		return fmt.Errorf("invalid shipyard.yaml: %w", err)
	}

	return nil
}

// assembleSettings merges the workspace document with the flat switch values
// into one Settings value. Path validation is deliberately not performed
// here; the bootstrap pipeline reports missing or unsafe paths as a typed
// failure with remediation instead of a load error.
func (m *Manager) assembleSettings(workspace *v1alpha1.Workspace) *Settings {
	infra := workspace.Spec.Infrastructure
	normalizeContext(&infra)

	image := workspace.Spec.Image
	if tag := m.Viper.GetString(KeyImageTag); tag != "" {
		image.Tag = tag
	}

	if buildFile := m.Viper.GetString(KeyBuildFile); buildFile != "" {
		image.BuildFile = buildFile
	}

	if buildContext := m.Viper.GetString(KeyBuildContext); buildContext != "" {
		image.BuildContext = buildContext
	}

	applyImageDefaults(&image)

	appName := m.Viper.GetString(KeyAppName)
	if appName == "" {
		appName = workspace.Spec.AppName
	}

	if appName == "" {
		appName = v1alpha1.DefaultAppName
	}

	targetWorkloads := splitTargetWorkloads(m.Viper.GetString(KeyTargetWorkloads))
	if targetWorkloads == nil {
		targetWorkloads = workspace.Spec.TargetWorkloads
	}

	commandTimeout := m.Viper.GetDuration(KeyCommandTimeout)
	if commandTimeout <= 0 {
		commandTimeout = DefaultCommandTimeout
	}

	probeTimeout := m.Viper.GetDuration(KeyProbeTimeout)
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}

	return &Settings{
		Infrastructure:   infra,
		AppName:          appName,
		Image:            image,
		TargetWorkloads:  targetWorkloads,
		ExecutionEnabled: m.Viper.GetBool(KeyExecutionEnabled),
		AutoInstall:      m.Viper.GetBool(KeyAutoInstall),
		AutoBuild:        m.Viper.GetBool(KeyAutoBuild),
		ForceRebuild:     m.Viper.GetBool(KeyForceRebuild),
		ContextInjection: m.Viper.GetBool(KeyContextInjection),
		CommandTimeout:   commandTimeout,
		ProbeTimeout:     probeTimeout,
		RepoRoot:         m.Viper.GetString(KeyRepoRoot),
		Kubeconfig:       m.Viper.GetString(KeyKubeconfig),
	}
}

// normalizeContext derives the context from the cluster kind when the
// document left it empty or still carries another kind's derived default
// (the document default assumes a kind-hosted cluster).
func normalizeContext(infra *v1alpha1.InfrastructureConfig) {
	expected := v1alpha1.DefaultContext(infra.ClusterKind, v1alpha1.DefaultClusterName)

	current := strings.TrimSpace(infra.Context)
	if current == "" || contextIsOtherKindDefault(current, infra.ClusterKind) {
		infra.Context = expected
	}
}

func contextIsOtherKindDefault(current string, kind v1alpha1.ClusterKind) bool {
	for _, other := range v1alpha1.ValidClusterKinds() {
		if other == kind {
			continue
		}

		otherDefault := v1alpha1.DefaultContext(other, v1alpha1.DefaultClusterName)
		if otherDefault != "" && current == otherDefault {
			return true
		}
	}

	return false
}

func applyImageDefaults(image *v1alpha1.ImageSpec) {
	if image.Tag == "" {
		image.Tag = v1alpha1.DefaultImageTag
	}

	if image.BuildFile == "" {
		image.BuildFile = v1alpha1.DefaultBuildFile
	}

	if image.BuildContext == "" {
		image.BuildContext = v1alpha1.DefaultBuildContext
	}
}

func (m *Manager) notifyLoadingStart() {
	notify.WriteMessage(notify.Message{
		Type:    notify.TitleType,
		Content: "Load config...",
		Emoji:   "⏳",
		Writer:  m.Writer,
	})
}

func (m *Manager) notifyReused() {
	notify.WriteMessage(notify.Message{
		Type:    notify.SuccessType,
		Content: "config already loaded, reusing existing config",
		Writer:  m.Writer,
	})
}

func (m *Manager) notifyLoading() {
	notify.WriteMessage(notify.Message{
		Type:    notify.ActivityType,
		Content: "loading shipyard config",
		Writer:  m.Writer,
	})
}

func (m *Manager) notifyUsingDefaults() {
	notify.WriteMessage(notify.Message{
		Type:    notify.ActivityType,
		Content: "using default config",
		Writer:  m.Writer,
	})
}

func (m *Manager) notifyConfigFound() {
	notify.WriteMessage(notify.Message{
		Type:    notify.ActivityType,
		Content: "'%s' found",
		Args:    []any{m.Viper.ConfigFileUsed()},
		Writer:  m.Writer,
	})
}

func (m *Manager) notifyLoadingComplete(tmr timer.Timer) {
	notify.WriteMessage(notify.Message{
		Type:    notify.SuccessType,
		Content: "config loaded",
		Timer:   tmr,
		Writer:  m.Writer,
	})
}
