// Package k8s provides Kubernetes client configuration and readiness polling.
//
// Key features:
//   - REST config building from kubeconfig files (BuildRESTConfig)
//   - Clientset creation (NewClientset)
//   - Generic readiness polling (PollForReadiness)
//   - Deployment rollout waiting (WaitForDeploymentReady)
package k8s
