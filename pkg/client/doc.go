// Package client provides embedded infrastructure clients.
//
// This package contains Go library wrappers for services Shipyard talks to
// directly instead of shelling out:
//
//   - docker: Container engine probes for the local cluster nodes
package client
