// Package inject encodes the context bundle and patches it into running
// workloads as environment variables.
//
// Injection tolerates partially deployed environments: a configured workload
// that does not exist is recorded and skipped. A workload that exists but
// fails to roll out after patching is fatal, since a half-patched workload is
// inconsistent.
package inject

import (
	"context"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/orchwiz/shipyard/pkg/apis/bootstrap/v1alpha1"
	"github.com/orchwiz/shipyard/pkg/k8s"
)

// Environment variables injected into every target container.
const (
	EnvBundle   = "ORCHWIZ_CONTEXT_BUNDLE"
	EnvSchema   = "ORCHWIZ_CONTEXT_SCHEMA"
	EnvSource   = "ORCHWIZ_CONTEXT_SOURCE"
	EnvEncoding = "ORCHWIZ_CONTEXT_ENCODING"
)

// DefaultRolloutTimeout bounds the per-workload rollout wait.
const DefaultRolloutTimeout = 2 * time.Minute

// Request is one injection pass over the configured target workloads.
type Request struct {
	// Bundle is the context to inject; nil skips injection.
	Bundle *v1alpha1.ContextBundle
	// Targets names the deployments to patch.
	Targets []string
	// Namespace holds the target deployments.
	Namespace string
	// Context names the cluster context, used in remediation output.
	Context string
	// Enabled gates the whole stage.
	Enabled bool
	// RolloutTimeout bounds each rollout wait; zero applies the default.
	RolloutTimeout time.Duration
}

// Injector patches context bundles into deployments.
type Injector struct {
	clientset kubernetes.Interface
}

// NewInjector constructs an Injector over the given clientset.
func NewInjector(clientset kubernetes.Interface) *Injector {
	return &Injector{clientset: clientset}
}

// SkipReason returns why this request is a no-op, or an empty string when
// injection will attempt. Callers use it to avoid building a cluster client
// for a request that would never touch the cluster.
func (r Request) SkipReason() string {
	switch {
	case !r.Enabled:
		return "context injection is disabled"
	case r.Bundle == nil:
		return "no context bundle supplied"
	case len(r.Targets) == 0:
		return "no target workloads configured"
	default:
		return ""
	}
}

// Inject encodes the bundle once and patches it into each target deployment,
// waiting for every patched rollout to converge. Disabled injection, a
// missing bundle, or an empty target list is a recorded no-op, not a failure.
func (i *Injector) Inject(ctx context.Context, request Request) (*v1alpha1.InjectionSummary, *v1alpha1.Failure) {
	if reason := request.SkipReason(); reason != "" {
		return &v1alpha1.InjectionSummary{
			SkipReason: reason,
			Targets:    request.Targets,
			Updated:    []string{},
		}, nil
	}

	encoded, err := request.Bundle.Encode()
	if err != nil {
		return nil, v1alpha1.NewInternalFailure(
			v1alpha1.FailureProvisioningFailed,
			fmt.Sprintf("encode context bundle: %v", err),
		)
	}

	summary := &v1alpha1.InjectionSummary{
		Attempted:    true,
		Targets:      request.Targets,
		Updated:      []string{},
		EncodedBytes: len(encoded),
	}

	timeout := request.RolloutTimeout
	if timeout <= 0 {
		timeout = DefaultRolloutTimeout
	}

	deployments := i.clientset.AppsV1().Deployments(request.Namespace)

	for _, target := range request.Targets {
		deployment, err := deployments.Get(ctx, target, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			summary.Missing = append(summary.Missing, target)

			continue
		}

		if err != nil {
			return summary, v1alpha1.NewFailure(
				v1alpha1.FailureProvisioningFailed,
				fmt.Sprintf("read workload %s/%s: %v", request.Namespace, target, err),
			)
		}

		applyBundleEnv(deployment, request.Bundle, encoded)

		_, err = deployments.Update(ctx, deployment, metav1.UpdateOptions{})
		if err != nil {
			return summary, v1alpha1.NewFailure(
				v1alpha1.FailureProvisioningFailed,
				fmt.Sprintf("patch workload %s/%s: %v", request.Namespace, target, err),
			)
		}

		err = k8s.WaitForDeploymentReady(ctx, i.clientset, request.Namespace, target, timeout)
		if err != nil {
			return summary, v1alpha1.NewFailure(
				v1alpha1.FailureProvisioningFailed,
				fmt.Sprintf("workload %q did not roll out after context injection: %v", target, err),
			).WithDetails(v1alpha1.FailureDetails{
				SuggestedCommands: []string{
					fmt.Sprintf("kubectl rollout status deployment/%s -n %s --context %s",
						target, request.Namespace, request.Context),
					fmt.Sprintf("kubectl describe deployment/%s -n %s --context %s",
						target, request.Namespace, request.Context),
				},
			})
		}

		summary.Updated = append(summary.Updated, target)
	}

	return summary, nil
}

// applyBundleEnv upserts the bundle variables into every container so each
// process in the workload sees the same context.
func applyBundleEnv(deployment *appsv1.Deployment, bundle *v1alpha1.ContextBundle, encoded string) {
	vars := []corev1.EnvVar{
		{Name: EnvBundle, Value: encoded},
		{Name: EnvSchema, Value: bundle.Schema},
		{Name: EnvSource, Value: bundle.Source},
		{Name: EnvEncoding, Value: v1alpha1.ContextBundleEncoding},
	}

	containers := deployment.Spec.Template.Spec.Containers
	for index := range containers {
		for _, envVar := range vars {
			containers[index].Env = upsertEnv(containers[index].Env, envVar)
		}
	}
}

func upsertEnv(env []corev1.EnvVar, envVar corev1.EnvVar) []corev1.EnvVar {
	for index := range env {
		if env[index].Name == envVar.Name {
			env[index].Value = envVar.Value
			env[index].ValueFrom = nil

			return env
		}
	}

	return append(env, envVar)
}
