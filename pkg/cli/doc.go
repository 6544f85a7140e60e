// Package cli provides reusable helpers for command wiring and execution.
//
// This package is organized into subpackages for different functionality:
//
//   - cli/cmd: The command tree (cluster, workspace) and the root command
//   - cli/flags: Flag handling utilities including timing detection
//   - cli/ui: User interface components (errorhandler)
//
// The utilities in this package follow dependency injection patterns and
// integrate with the Shipyard runtime container for testability.
package cli
