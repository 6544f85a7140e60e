// Package settings loads and resolves shipyard configuration.
//
// Configuration is assembled once per invocation from four layers with
// increasing priority: built-in defaults, the shipyard.yaml workspace
// document, SHIPYARD_ environment variables, and command-line flags. The
// resolved Settings value is treated as immutable and handed to every
// component, so nothing reads configuration ad hoc at runtime.
package settings
