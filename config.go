package chartsuite

import (
	"fmt"
	"os"
)

const (
	// DefaultReleaseName is the release name used for the chart under test when none is configured
	DefaultReleaseName = "application-under-test"

	// DependencyReleaseName is the fixed release name used for the dependency chart
	DependencyReleaseName = "dependency-release"

	// PullSecretName is the name of the registry pull secret provisioned during setup
	PullSecretName = "registry-pull-secret"

	// BaselineVersionLatest requests that the baseline version be resolved from the
	// chart repository index instead of being pinned
	BaselineVersionLatest = "latest"
)

// Config holds the full configuration of a test run. It is an explicit value passed
// into the Framework constructor rather than ambient state.
type Config struct {
	// Kubeconfig is the path to the admin kubeconfig of the cluster under test
	Kubeconfig string
	// Namespace is the target namespace the whole run is scoped to
	Namespace string
	// ReleaseName is the release name used when installing the chart under test
	ReleaseName string
	// ChartArchive is the path to the chart archive under test
	ChartArchive string
	// DependencyChartArchive optionally points to an archive holding the implicit
	// dependencies of the chart under test, installed during setup
	DependencyChartArchive string
	// HelmRepo is the chart repository the baseline is installed from
	HelmRepo string
	// BaselineChartVersion is the version of the published baseline chart to upgrade
	// from. Mandatory unless SkipUpgradeTest is set. May be [BaselineVersionLatest].
	BaselineChartVersion string
	// SkipUpgradeTest skips the upgrade test, needed when there is no baseline yet
	SkipUpgradeTest bool
	// DockerConfig optionally points to a docker config.json used to provision a
	// registry pull secret in the target namespace
	DockerConfig string
}

// Validate checks that all required values are present and that provided file paths are
// readable. It is called before any cluster action takes place.
func (c *Config) Validate() error {
	if c.Kubeconfig == "" {
		return fmt.Errorf("a kubeconfig file must be provided")
	}
	if c.Namespace == "" {
		return fmt.Errorf("a target namespace must be provided")
	}
	if c.ChartArchive == "" {
		return fmt.Errorf("a chart archive must be provided")
	}
	if c.HelmRepo == "" {
		return fmt.Errorf("a helm repo must be provided")
	}
	if c.BaselineChartVersion == "" && !c.SkipUpgradeTest {
		return fmt.Errorf("either a baseline chart version or skipping the upgrade test must be specified")
	}

	for _, path := range []string{c.Kubeconfig, c.ChartArchive} {
		if err := checkReadableFile(path); err != nil {
			return err
		}
	}
	if c.DependencyChartArchive != "" {
		if err := checkReadableFile(c.DependencyChartArchive); err != nil {
			return err
		}
	}
	if c.DockerConfig != "" {
		if err := checkReadableFile(c.DockerConfig); err != nil {
			return err
		}
	}

	return nil
}

func checkReadableFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("the value '%s' provided is not a readable file - %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("the value '%s' provided is not a readable file", path)
	}
	return nil
}
