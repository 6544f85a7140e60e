// Package io provides configuration input and output for Shipyard.
//
// Subpackages:
//   - settings: Layered configuration from defaults, file, environment, and flags
//   - scaffolder: Deploy workspace skeleton generation
package io
