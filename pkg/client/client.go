package client

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/kubectl/pkg/scheme"
	cr "sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/apiutil"
)

// Client extends the client from controller-runtime
type Client struct {
	cr.Client

	config *rest.Config
}

// New creates a new Kubernetes client for the provided kubeconfig file
//
// The client is an extension of the client from controller-runtime and provides the
// namespace and pod operations needed by the test framework. REST discovery is set to
// lazy discovery so the client can be created before connectivity is confirmed.
func New(kubeconfigPath string) (*Client, error) {
	if kubeconfigPath == "" {
		return nil, fmt.Errorf("a kubeconfig file must be provided")
	}

	cfg, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath},
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create config - %v", err)
	}

	mapper, err := apiutil.NewDynamicRESTMapper(cfg, apiutil.WithLazyDiscovery)
	if err != nil {
		return nil, fmt.Errorf("failed to create new dynamic client - %v", err)
	}

	client, err := cr.New(cfg, cr.Options{Scheme: scheme.Scheme, Mapper: mapper})
	if err != nil {
		return nil, fmt.Errorf("failed to create new client - %v", err)
	}

	return &Client{Client: client, config: cfg}, nil
}

// CheckConnection attempts to connect to the clusters API server
func (c *Client) CheckConnection() error {
	var ns corev1.NamespaceList
	err := c.List(context.Background(), &ns)
	if err != nil {
		if isSuccessfulConnectionError(err) {
			// The API server did return but with a known error.
			// We consider this a successful connection to the cluster.
			return nil
		}
		return err
	}

	return nil
}

// FindNamespace returns the namespace matching the provided name, or nil if no such
// namespace exists. Absence is not an error.
func (c *Client) FindNamespace(ctx context.Context, name string) (*corev1.Namespace, error) {
	namespaceList := &corev1.NamespaceList{}
	if err := c.List(ctx, namespaceList); err != nil {
		return nil, fmt.Errorf("failed to list namespaces - %v", err)
	}

	for i := range namespaceList.Items {
		if namespaceList.Items[i].ObjectMeta.Name == name {
			return &namespaceList.Items[i], nil
		}
	}

	return nil, nil
}

// CreateNamespace creates a namespace with the provided name and re-queries the API
// server to confirm it exists. If the post-create lookup still shows absence a
// [NamespaceCreateError] is returned.
func (c *Client) CreateNamespace(ctx context.Context, name string) (*corev1.Namespace, error) {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
	if err := c.Create(ctx, ns); err != nil {
		return nil, fmt.Errorf("failed to create namespace '%s' - %v", name, err)
	}

	created, err := c.FindNamespace(ctx, name)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, &NamespaceCreateError{Name: name}
	}

	return created, nil
}

// DeleteNamespace issues a foreground-cascading delete for the named namespace so that
// contained resources are deleted before the namespace itself disappears.
func (c *Client) DeleteNamespace(ctx context.Context, name string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: name,
		},
	}
	propagation := metav1.DeletePropagationForeground
	if err := c.Delete(ctx, ns, &cr.DeleteOptions{PropagationPolicy: &propagation}); err != nil {
		return fmt.Errorf("failed to delete namespace '%s' - %v", name, err)
	}

	return nil
}

// ListPods returns all pods currently present in the provided namespace
func (c *Client) ListPods(ctx context.Context, namespace string) (*corev1.PodList, error) {
	podList := &corev1.PodList{}
	if err := c.List(ctx, podList, cr.InNamespace(namespace)); err != nil {
		return nil, fmt.Errorf("failed to list pods in namespace '%s' - %v", namespace, err)
	}

	return podList, nil
}
