package k8s

import (
	"context"
	"errors"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// PollInterval is the delay between readiness probes.
const PollInterval = 2 * time.Second

// PollForReadiness invokes poll until it reports ready, the deadline passes,
// or the context is canceled. The first probe runs immediately. Poll errors
// abort the wait; transient conditions should return (false, nil) to keep
// polling.
func PollForReadiness(
	ctx context.Context,
	deadline time.Duration,
	poll func(context.Context) (bool, error),
) error {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		ready, err := poll(ctx)
		if err != nil {
			return err
		}

		if ready {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w after %s", ErrTimeoutExceeded, deadline)
			}

			return fmt.Errorf("readiness wait canceled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// WaitForDeploymentReady polls until the named deployment's rollout is
// complete: the controller has observed the latest generation and every
// replica is updated and available.
func WaitForDeploymentReady(
	ctx context.Context,
	clientset kubernetes.Interface,
	namespace, name string,
	deadline time.Duration,
) error {
	err := PollForReadiness(ctx, deadline, func(ctx context.Context) (bool, error) {
		deployment, err := clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return false, nil //nolint:nilerr // returning nil to continue polling
		}

		return deploymentIsReady(deployment), nil
	})
	if err != nil {
		return fmt.Errorf("deployment %s/%s not ready: %w", namespace, name, err)
	}

	return nil
}

// deploymentIsReady reports whether the rollout has converged.
func deploymentIsReady(deployment *appsv1.Deployment) bool {
	if deployment.Generation > deployment.Status.ObservedGeneration {
		return false
	}

	replicas := int32(1)
	if deployment.Spec.Replicas != nil {
		replicas = *deployment.Spec.Replicas
	}

	return deployment.Status.UpdatedReplicas >= replicas &&
		deployment.Status.AvailableReplicas >= replicas
}
