package kubectl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ResourceKind identifies a replica-scaled resource type. Each kind has its own
// column layout in the kubectl listing output.
type ResourceKind string

const (
	// KindDeployment lists replica counts in a single READY column formatted as "actual/desired"
	KindDeployment ResourceKind = "deployment"
	// KindReplicaSet lists the desired and actual replica counts as two separate columns
	KindReplicaSet ResourceKind = "replicaset"
)

// ScaledResource is a replica-scaled resource as observed from a kubectl listing
type ScaledResource struct {
	Name    string
	Actual  int
	Desired int
}

// CommandRunner runs an external command and returns its captured stdout
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Kubectl is a typed wrapper over the cluster-admin operations performed through the kubectl CLI
type Kubectl struct {
	runner CommandRunner
}

// New creates a new Kubectl wrapper using the provided runner
func New(runner CommandRunner) *Kubectl {
	return &Kubectl{runner: runner}
}

// ListScaledResources lists all resources of the given kind in the namespace along with
// their actual and desired replica counts, parsed from the tabular kubectl output.
func (k *Kubectl) ListScaledResources(ctx context.Context, namespace string, kind ResourceKind) ([]ScaledResource, error) {
	output, err := k.runner.Run(ctx, "kubectl", "get", string(kind), "--no-headers", "-n", namespace)
	if err != nil {
		return nil, err
	}

	return parseScaledResources(output, kind)
}

// CreatePullSecret creates a dockerconfigjson secret in the namespace from the provided
// docker config file, for pulling images from a private registry.
func (k *Kubectl) CreatePullSecret(ctx context.Context, namespace string, name string, dockerConfigPath string) error {
	_, err := k.runner.Run(ctx, "kubectl", "create", "secret", "generic", name,
		"--from-file=.dockerconfigjson="+dockerConfigPath,
		"--type=kubernetes.io/dockerconfigjson",
		"--namespace", namespace)
	return err
}

// PatchDefaultServiceAccount adds the named secret to the imagePullSecrets of the
// default service account in the namespace.
func (k *Kubectl) PatchDefaultServiceAccount(ctx context.Context, namespace string, secretName string) error {
	patch := fmt.Sprintf(`{"imagePullSecrets": [{"name": %q}]}`, secretName)
	_, err := k.runner.Run(ctx, "kubectl", "patch", "serviceaccount", "default",
		"-p", patch,
		"-n", namespace)
	return err
}

func parseScaledResources(output string, kind ResourceKind) ([]ScaledResource, error) {
	resources := []ScaledResource{}

	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		resource, err := parseScaledResource(strings.Fields(line), kind)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}

	return resources, nil
}

func parseScaledResource(fields []string, kind ResourceKind) (ScaledResource, error) {
	switch kind {
	case KindDeployment:
		// NAME READY UP-TO-DATE AVAILABLE AGE, with READY holding "actual/desired"
		if len(fields) < 2 {
			return ScaledResource{}, fmt.Errorf("unexpected %s listing line: %v", kind, fields)
		}
		parts := strings.SplitN(fields[1], "/", 2)
		if len(parts) != 2 {
			return ScaledResource{}, fmt.Errorf("unexpected ready column for %s '%s': %s", kind, fields[0], fields[1])
		}
		actual, err := strconv.Atoi(parts[0])
		if err != nil {
			return ScaledResource{}, fmt.Errorf("failed to parse actual replica count for %s '%s' - %v", kind, fields[0], err)
		}
		desired, err := strconv.Atoi(parts[1])
		if err != nil {
			return ScaledResource{}, fmt.Errorf("failed to parse desired replica count for %s '%s' - %v", kind, fields[0], err)
		}
		return ScaledResource{Name: fields[0], Actual: actual, Desired: desired}, nil

	case KindReplicaSet:
		// NAME DESIRED CURRENT READY AGE
		if len(fields) < 3 {
			return ScaledResource{}, fmt.Errorf("unexpected %s listing line: %v", kind, fields)
		}
		desired, err := strconv.Atoi(fields[1])
		if err != nil {
			return ScaledResource{}, fmt.Errorf("failed to parse desired replica count for %s '%s' - %v", kind, fields[0], err)
		}
		actual, err := strconv.Atoi(fields[2])
		if err != nil {
			return ScaledResource{}, fmt.Errorf("failed to parse actual replica count for %s '%s' - %v", kind, fields[0], err)
		}
		return ScaledResource{Name: fields[0], Actual: actual, Desired: desired}, nil

	default:
		return ScaledResource{}, fmt.Errorf("unsupported resource kind: %s", kind)
	}
}
