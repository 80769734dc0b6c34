package chartsuite

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"

	"github.com/chartsuite/chartsuite/pkg/client"
	"github.com/chartsuite/chartsuite/pkg/helm"
	"github.com/chartsuite/chartsuite/pkg/kubectl"
	"github.com/chartsuite/chartsuite/pkg/logger"
	"github.com/chartsuite/chartsuite/pkg/repo"
	"github.com/chartsuite/chartsuite/pkg/runner"
	"github.com/chartsuite/chartsuite/pkg/wait"
)

const (
	// namespaceWaitRetries is the retry budget for namespace deletion and pod waits
	namespaceWaitRetries = 60
	// releaseWaitRetries is the retry budget for release deployment and replica scaling waits
	releaseWaitRetries = 20

	baselineReleaseSuffix = "-baseline-release"
)

// releaseManager sequences install, upgrade and delete of releases
type releaseManager interface {
	Install(ctx context.Context, release string, archive string, namespace string) error
	InstallFromRepo(ctx context.Context, repoURL string, chart string, version string, release string, namespace string) error
	Upgrade(ctx context.Context, baseline string, archive string, namespace string) error
	Delete(ctx context.Context, release string, namespace string) error
	ListReleases(ctx context.Context, namespace string) ([]string, error)
	ListDeployed(ctx context.Context, namespace string, filter string) ([]string, error)
	ReleaseExists(ctx context.Context, namespace string) (bool, error)
	CleanupNamespace(ctx context.Context, namespace string) error
	ChartName(ctx context.Context, archive string) (string, error)
}

// clusterClient performs the namespace and pod operations against the cluster API
type clusterClient interface {
	FindNamespace(ctx context.Context, name string) (*corev1.Namespace, error)
	CreateNamespace(ctx context.Context, name string) (*corev1.Namespace, error)
	DeleteNamespace(ctx context.Context, name string) error
	ListPods(ctx context.Context, namespace string) (*corev1.PodList, error)
}

// adminCLI performs the operations that go through the kubectl CLI
type adminCLI interface {
	ListScaledResources(ctx context.Context, namespace string, kind kubectl.ResourceKind) ([]kubectl.ScaledResource, error)
	CreatePullSecret(ctx context.Context, namespace string, name string, dockerConfigPath string) error
	PatchDefaultServiceAccount(ctx context.Context, namespace string, secretName string) error
}

// Framework drives a full install and upgrade test run against a single target namespace
type Framework struct {
	config   Config
	releases releaseManager
	cluster  clusterClient
	kubectl  adminCLI

	// resolveLatest looks up the newest published baseline version when requested
	resolveLatest func(ctx context.Context, repoURL string, chart string) (string, error)

	// pollDelay is the fixed delay between convergence poll attempts
	pollDelay time.Duration

	dependencyInstalled bool
}

// New validates the provided configuration and initializes a Framework for it.
// No cluster action is performed until one of the phases is run.
func New(config Config) (*Framework, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ReleaseName == "" {
		config.ReleaseName = DefaultReleaseName
	}

	cluster, err := client.New(config.Kubeconfig)
	if err != nil {
		return nil, err
	}

	run := runner.New()
	return &Framework{
		config:        config,
		releases:      helm.New(run),
		cluster:       cluster,
		kubectl:       kubectl.New(run),
		resolveLatest: repo.LatestVersion,
		pollDelay:     wait.DefaultDelay,
	}, nil
}

// Run executes every phase of the test in order: Setup, InstallTest, UpgradeTest
// (unless skipped by configuration) and Teardown. The first fatal error aborts
// everything that remains, including teardown.
func (f *Framework) Run(ctx context.Context) error {
	if err := f.Setup(ctx); err != nil {
		return err
	}
	if err := f.InstallTest(ctx); err != nil {
		return err
	}
	if !f.config.SkipUpgradeTest {
		if err := f.UpgradeTest(ctx); err != nil {
			return err
		}
	}
	return f.Teardown(ctx)
}

// Setup brings the target namespace into a known-clean state and provisions everything
// the tests need: a fresh namespace, the registry pull secret and, if configured, the
// dependency chart fully converged.
func (f *Framework) Setup(ctx context.Context) error {
	namespace := f.config.Namespace

	if err := f.cleanupTargetNamespace(ctx); err != nil {
		return err
	}

	logger.Log("Setup: Ensure that target namespace exists")
	if _, err := f.cluster.CreateNamespace(ctx, namespace); err != nil {
		return err
	}

	if f.config.DockerConfig != "" {
		logger.Log("Setup: Provision registry pull secret")
		if err := f.kubectl.CreatePullSecret(ctx, namespace, PullSecretName, f.config.DockerConfig); err != nil {
			return err
		}
		if err := f.kubectl.PatchDefaultServiceAccount(ctx, namespace, PullSecretName); err != nil {
			return err
		}
	}

	if f.config.DependencyChartArchive != "" {
		logger.Log("Setup: Install dependency chart archive")
		if err := f.releases.Install(ctx, DependencyReleaseName, f.config.DependencyChartArchive, namespace); err != nil {
			return err
		}
		f.dependencyInstalled = true

		logger.Log("Setup: Wait for all resources to be up")
		if err := f.WaitForAllResources(ctx); err != nil {
			return err
		}

		logger.Log("Setup: List releases")
		releases, err := f.releases.ListReleases(ctx, namespace)
		if err != nil {
			return err
		}
		logger.Log("Releases in namespace '%s': %v", namespace, releases)
	}

	return nil
}

// InstallTest installs the chart under test, waits for full convergence and for the
// release to reach the deployed state, then deletes the release again. Only install and
// readiness are validated, not persistence.
func (f *Framework) InstallTest(ctx context.Context) error {
	start := time.Now()
	namespace := f.config.Namespace
	release := f.config.ReleaseName

	logger.Log("TC: Install %s", release)

	logger.Log("Test Step 1: Install from chart archive - %s", time.Since(start))
	if err := f.releases.Install(ctx, release, f.config.ChartArchive, namespace); err != nil {
		return err
	}

	logger.Log("Test Step 2: Wait for all resources to be up - %s", time.Since(start))
	if err := f.WaitForAllResources(ctx); err != nil {
		return err
	}
	if err := f.waitForDeployedRelease(ctx, release); err != nil {
		return err
	}

	logger.Log("Test Step 3: Delete release - %s", time.Since(start))
	return f.releases.Delete(ctx, release, namespace)
}

// UpgradeTest installs the published baseline version of the chart under test from the
// configured repository, waits for it to converge, then upgrades it in place to the
// archive under test and waits for convergence again. Any failure is fatal; no rollback
// is attempted.
func (f *Framework) UpgradeTest(ctx context.Context) error {
	start := time.Now()
	namespace := f.config.Namespace

	logger.Log("TC: Upgrade %s", f.config.ReleaseName)

	chartName, err := f.releases.ChartName(ctx, f.config.ChartArchive)
	if err != nil {
		return err
	}
	baselineRelease := chartName + baselineReleaseSuffix
	logger.Log("Baseline release name is: %s", baselineRelease)

	version := f.config.BaselineChartVersion
	if version == BaselineVersionLatest {
		version, err = f.resolveLatest(ctx, f.config.HelmRepo, chartName)
		if err != nil {
			return err
		}
	}

	logger.Log("Test Step 1: Install baseline from helm repo - %s", time.Since(start))
	if err := f.releases.InstallFromRepo(ctx, f.config.HelmRepo, chartName, version, baselineRelease, namespace); err != nil {
		return err
	}

	logger.Log("Test Step 2: Wait for all resources to be up - %s", time.Since(start))
	if err := f.WaitForAllResources(ctx); err != nil {
		return err
	}
	if err := f.waitForDeployedRelease(ctx, baselineRelease); err != nil {
		return err
	}

	logger.Log("Test Step 3: Perform upgrade from baseline - %s", time.Since(start))
	if err := f.releases.Upgrade(ctx, baselineRelease, f.config.ChartArchive, namespace); err != nil {
		return err
	}

	logger.Log("Test Step 4: Wait for all resources to be up - %s", time.Since(start))
	if err := f.WaitForAllResources(ctx); err != nil {
		return err
	}
	return f.waitForDeployedRelease(ctx, baselineRelease)
}

// Teardown deletes the dependency release if one was installed and repeats the
// setup-style namespace cleanup to leave the cluster in the pre-test state.
func (f *Framework) Teardown(ctx context.Context) error {
	if f.dependencyInstalled {
		logger.Log("Teardown: Delete dependency release")
		if err := f.releases.Delete(ctx, DependencyReleaseName, f.config.Namespace); err != nil {
			return err
		}
	}
	return f.cleanupTargetNamespace(ctx)
}

// WaitForAllResources waits for every pod in the target namespace to be running and
// ready and for every replica-scaled resource to reach its desired count. Replica-sets
// are checked before deployments, each wait running to full convergence (or fatal
// timeout) before the next begins.
func (f *Framework) WaitForAllResources(ctx context.Context) error {
	namespace := f.config.Namespace

	logger.Log("Pods:")
	err := wait.For(
		wait.AreAllPodsRunning(ctx, f.cluster, namespace),
		wait.WithDescription(fmt.Sprintf("pods in namespace '%s' to reach Ready & Running", namespace)),
		wait.WithRetries(namespaceWaitRetries),
		wait.WithDelay(f.pollDelay),
	)
	if err != nil {
		return err
	}

	for _, kind := range []kubectl.ResourceKind{kubectl.KindReplicaSet, kubectl.KindDeployment} {
		err := wait.For(
			wait.AreScaledResourcesReady(ctx, f.kubectl, namespace, kind),
			wait.WithDescription(fmt.Sprintf("every %s in namespace '%s' to reach its desired replica count", kind, namespace)),
			wait.WithRetries(releaseWaitRetries),
			wait.WithDelay(f.pollDelay),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// cleanupTargetNamespace idempotently brings the target namespace back to absence:
// any releases in it are deleted and their pods awaited, then the namespace itself is
// deleted and the deletion awaited. A namespace that doesn't exist is already clean.
func (f *Framework) cleanupTargetNamespace(ctx context.Context) error {
	namespace := f.config.Namespace

	logger.Log("Ensure that target namespace '%s' has been cleaned up", namespace)
	ns, err := f.cluster.FindNamespace(ctx, namespace)
	if err != nil {
		return err
	}
	if ns == nil {
		return nil
	}

	exists, err := f.releases.ReleaseExists(ctx, namespace)
	if err != nil {
		return err
	}
	if exists {
		if err := f.releases.CleanupNamespace(ctx, namespace); err != nil {
			return err
		}
		err := wait.For(
			wait.AreAllPodsGone(ctx, f.cluster, namespace),
			wait.WithDescription(fmt.Sprintf("pods in namespace '%s' to terminate", namespace)),
			wait.WithRetries(namespaceWaitRetries),
			wait.WithDelay(f.pollDelay),
		)
		if err != nil {
			return err
		}
	}

	if err := f.cluster.DeleteNamespace(ctx, namespace); err != nil {
		return err
	}

	return wait.For(
		wait.IsNamespaceGone(ctx, f.cluster, namespace),
		wait.WithDescription(fmt.Sprintf("namespace '%s' to be deleted", namespace)),
		wait.WithRetries(namespaceWaitRetries),
		wait.WithDelay(f.pollDelay),
	)
}

func (f *Framework) waitForDeployedRelease(ctx context.Context, release string) error {
	logger.Log("Waiting for release '%s' to reach deployed state", release)
	return wait.For(
		wait.IsReleaseDeployed(ctx, f.releases, release, f.config.Namespace),
		wait.WithDescription(fmt.Sprintf("release '%s' to reach deployed state", release)),
		wait.WithRetries(releaseWaitRetries),
		wait.WithDelay(f.pollDelay),
	)
}
