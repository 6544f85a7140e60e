// Package svc provides the service layer of Shipyard.
//
// This package contains the business logic that coordinates between the CLI
// commands and the underlying clients and external tools.
//
// Subpackages:
//   - bootstrap: Stage chain that stands up the local deployment environment
//   - image: Conditional application image build and load into kind nodes
//   - inject: Context bundle injection into running workloads
//   - kubecontext: Kubeconfig context discovery and verification
//   - outputs: Dashboard metadata extraction from environment outputs
//   - provision: Provisioning playbook execution and failure classification
//   - reset: Destructive delete-and-recreate flow for the local cluster
//   - status: Read-only environment health probes
//   - tooling: Required tool checks with an optional self-healing install
//   - workspace: Deploy workspace layout validation
package svc
