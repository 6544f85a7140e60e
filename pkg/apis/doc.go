// Package apis provides API type definitions for Shipyard resources.
//
// This package contains versioned API types following Kubernetes API conventions:
//
//   - bootstrap: Workspace configuration, bootstrap inputs, and result types
//
// The API types are designed to be serializable to YAML and support
// declarative configuration workflows.
package apis
