// Package v1alpha1 contains the bootstrap API types: the infrastructure
// configuration, the bootstrap input and result union, the failure taxonomy,
// and the context bundle exchanged with running workloads.
package v1alpha1
