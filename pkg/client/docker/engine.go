// Package docker wraps the container engine API behind the narrow surface
// the environment probes need: a daemon ping and a listing of the containers
// backing a local cluster.
package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// ErrNoEngine is returned when no container engine client is available.
var ErrNoEngine = errors.New("container engine unavailable")

// ContainerAPI is the slice of the engine API this package consumes. The full
// client satisfies it; tests substitute a canned implementation.
type ContainerAPI interface {
	Ping(ctx context.Context) (types.Ping, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	Close() error
}

// Node is one container backing a local cluster node.
type Node struct {
	// Name is the container name without the leading slash.
	Name string `json:"name"`
	// Role is control-plane or worker, derived from the container name.
	Role string `json:"role,omitempty"`
	// State is the engine-reported container state.
	State string `json:"state"`
}

// Engine talks to the local container engine.
type Engine struct {
	api ContainerAPI
}

// Connect builds an Engine from the ambient environment (DOCKER_HOST and
// friends), negotiating the API version with the daemon.
func Connect() (*Engine, error) {
	api, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return NewEngine(api), nil
}

// NewEngine wraps an existing API client.
func NewEngine(api ContainerAPI) *Engine {
	return &Engine{api: api}
}

// Ping checks that the engine daemon is reachable and responding.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.api == nil {
		return ErrNoEngine
	}

	_, err := e.api.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping container engine: %w", err)
	}

	return nil
}

// ClusterNodes lists the containers backing the named local cluster. Kind
// does not label its containers, so nodes are matched by the name prefix the
// cluster CLI assigns (<cluster>-control-plane, <cluster>-worker, ...).
func (e *Engine) ClusterNodes(ctx context.Context, clusterName string) ([]Node, error) {
	if e == nil || e.api == nil {
		return nil, ErrNoEngine
	}

	// Stopped nodes matter here, so list everything.
	containers, err := e.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, fmt.Errorf("list containers: %w", err)
	}

	prefix := clusterName + "-"

	var nodes []Node

	for _, ctr := range containers {
		for _, rawName := range ctr.Names {
			// Container names carry a leading "/".
			name := strings.TrimPrefix(rawName, "/")
			if !strings.HasPrefix(name, prefix) {
				continue
			}

			nodes = append(nodes, Node{Name: name, Role: nodeRole(name), State: ctr.State})

			break
		}
	}

	return nodes, nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	if e == nil || e.api == nil {
		return nil
	}

	err := e.api.Close()
	if err != nil {
		return fmt.Errorf("close docker client: %w", err)
	}

	return nil
}

func nodeRole(name string) string {
	switch {
	case strings.Contains(name, "control-plane"):
		return "control-plane"
	case strings.Contains(name, "worker"):
		return "worker"
	default:
		return ""
	}
}
