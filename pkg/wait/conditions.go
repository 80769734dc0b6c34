package wait

import (
	"context"
	"fmt"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/chartsuite/chartsuite/pkg/kubectl"
	"github.com/chartsuite/chartsuite/pkg/logger"
)

// NamespaceFinder looks up a namespace by name, returning nil when it does not exist
type NamespaceFinder interface {
	FindNamespace(ctx context.Context, name string) (*corev1.Namespace, error)
}

// PodLister lists the pods currently present in a namespace
type PodLister interface {
	ListPods(ctx context.Context, namespace string) (*corev1.PodList, error)
}

// DeployedLister returns the names of the releases currently in the deployed state,
// optionally filtered to an exact release name
type DeployedLister interface {
	ListDeployed(ctx context.Context, namespace string, filter string) ([]string, error)
}

// ScaledResourceLister lists the replica-scaled resources of a given kind in a namespace
type ScaledResourceLister interface {
	ListScaledResources(ctx context.Context, namespace string, kind kubectl.ResourceKind) ([]kubectl.ScaledResource, error)
}

// IsReleaseDeployed returns a WaitCondition that checks if the named release appears in
// the deployed release listing. Only an exact name match counts.
func IsReleaseDeployed(ctx context.Context, releases DeployedLister, release string, namespace string) WaitCondition {
	return func() (bool, error) {
		deployed, err := releases.ListDeployed(ctx, namespace, release)
		if err != nil {
			return false, err
		}

		for _, name := range deployed {
			if name == release {
				return true, nil
			}
		}

		logger.Log("Release '%s' not yet deployed, currently deployed: [%s]", release, strings.Join(deployed, ", "))
		return false, nil
	}
}

// IsNamespaceGone returns a WaitCondition that checks if the named namespace no longer exists
func IsNamespaceGone(ctx context.Context, finder NamespaceFinder, namespace string) WaitCondition {
	return func() (bool, error) {
		ns, err := finder.FindNamespace(ctx, namespace)
		if err != nil {
			return false, err
		}
		if ns == nil {
			return true, nil
		}

		logger.Log("Waiting for namespace '%s' to be deleted", namespace)
		return false, nil
	}
}

// AreAllPodsRunning returns a WaitCondition that checks if every pod in the namespace has
// reached the Running phase with every container reporting ready. A pod that has no
// container statuses yet counts as not ready.
func AreAllPodsRunning(ctx context.Context, pods PodLister, namespace string) WaitCondition {
	return func() (bool, error) {
		podList, err := pods.ListPods(ctx, namespace)
		if err != nil {
			return false, err
		}

		ready := true
		for i := range podList.Items {
			pod := &podList.Items[i]
			logger.Log("Pod '%s': Phase=%s Containers=%s", pod.ObjectMeta.Name, pod.Status.Phase, formatContainerStatuses(pod.Status.ContainerStatuses))

			if pod.Status.Phase != corev1.PodRunning {
				ready = false
				continue
			}
			if len(pod.Status.ContainerStatuses) == 0 {
				ready = false
				continue
			}
			for _, containerStatus := range pod.Status.ContainerStatuses {
				if !containerStatus.Ready {
					ready = false
				}
			}
		}

		return ready, nil
	}
}

// AreAllPodsGone returns a WaitCondition that checks if the namespace contains no pods at all
func AreAllPodsGone(ctx context.Context, pods PodLister, namespace string) WaitCondition {
	return func() (bool, error) {
		podList, err := pods.ListPods(ctx, namespace)
		if err != nil {
			return false, err
		}
		if len(podList.Items) == 0 {
			return true, nil
		}

		for i := range podList.Items {
			pod := &podList.Items[i]
			logger.Log("Phase: %s  Pod: %s", pod.Status.Phase, pod.ObjectMeta.Name)
		}
		return false, nil
	}
}

// AreScaledResourcesReady returns a WaitCondition that checks if every resource of the
// given kind in the namespace has its actual replica count matching the desired count.
// The whole batch is re-listed and re-checked on every attempt.
func AreScaledResourcesReady(ctx context.Context, resources ScaledResourceLister, namespace string, kind kubectl.ResourceKind) WaitCondition {
	return func() (bool, error) {
		listed, err := resources.ListScaledResources(ctx, namespace, kind)
		if err != nil {
			return false, err
		}

		ready := true
		for _, resource := range listed {
			logger.Log("%s '%s': pods ready/desired (%d/%d)", kind, resource.Name, resource.Actual, resource.Desired)
			if resource.Actual != resource.Desired {
				ready = false
			}
		}

		return ready, nil
	}
}

func formatContainerStatuses(statuses []corev1.ContainerStatus) string {
	if len(statuses) == 0 {
		return "no container statuses"
	}

	formatted := make([]string, 0, len(statuses))
	for _, status := range statuses {
		formatted = append(formatted, fmt.Sprintf("%s(ready=%t)", status.Name, status.Ready))
	}
	return strings.Join(formatted, " ")
}
