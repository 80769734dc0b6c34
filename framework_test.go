package chartsuite

import (
	"context"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/chartsuite/chartsuite/pkg/helm"
	"github.com/chartsuite/chartsuite/pkg/kubectl"
	"github.com/chartsuite/chartsuite/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.DisableLogging = true
	os.Exit(m.Run())
}

// fakeWorld is the shared cluster state mutated by the fake collaborators. It models a
// single target namespace with its releases and pods.
type fakeWorld struct {
	namespaceExists bool
	releases        []string
	deployed        []string
	pods            []corev1.Pod
	trace           []string

	installErr error
	upgradeErr error
}

func (w *fakeWorld) record(format string, args ...any) {
	w.trace = append(w.trace, fmt.Sprintf(format, args...))
}

func runningPod(name string) corev1.Pod {
	return corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.PodStatus{
			Phase:             corev1.PodRunning,
			ContainerStatuses: []corev1.ContainerStatus{{Name: "main", Ready: true}},
		},
	}
}

type fakeCluster struct{ w *fakeWorld }

func (f *fakeCluster) FindNamespace(_ context.Context, name string) (*corev1.Namespace, error) {
	if !f.w.namespaceExists {
		return nil, nil
	}
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}, nil
}

func (f *fakeCluster) CreateNamespace(_ context.Context, name string) (*corev1.Namespace, error) {
	f.w.record("create-namespace %s", name)
	f.w.namespaceExists = true
	return &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: name}}, nil
}

func (f *fakeCluster) DeleteNamespace(_ context.Context, name string) error {
	f.w.record("delete-namespace %s", name)
	f.w.namespaceExists = false
	f.w.pods = nil
	return nil
}

func (f *fakeCluster) ListPods(_ context.Context, _ string) (*corev1.PodList, error) {
	return &corev1.PodList{Items: f.w.pods}, nil
}

type fakeHelm struct{ w *fakeWorld }

func (f *fakeHelm) Install(_ context.Context, release string, archive string, _ string) error {
	f.w.record("install %s %s", release, archive)
	if f.w.installErr != nil {
		return f.w.installErr
	}
	f.w.releases = append(f.w.releases, release)
	f.w.deployed = append(f.w.deployed, release)
	f.w.pods = append(f.w.pods, runningPod(release+"-0"))
	return nil
}

func (f *fakeHelm) InstallFromRepo(_ context.Context, repoURL string, chart string, version string, release string, _ string) error {
	f.w.record("install-from-repo %s %s %s %s", repoURL, chart, version, release)
	f.w.releases = append(f.w.releases, release)
	f.w.deployed = append(f.w.deployed, release)
	f.w.pods = append(f.w.pods, runningPod(release+"-0"))
	return nil
}

func (f *fakeHelm) Upgrade(_ context.Context, baseline string, archive string, namespace string) error {
	f.w.record("upgrade %s %s", baseline, archive)
	if f.w.upgradeErr != nil {
		return f.w.upgradeErr
	}
	if !slices.Contains(f.w.deployed, baseline) {
		return &helm.PreconditionError{Release: baseline, Namespace: namespace}
	}
	return nil
}

func (f *fakeHelm) Delete(_ context.Context, release string, _ string) error {
	f.w.record("delete %s", release)
	f.w.releases = slices.DeleteFunc(f.w.releases, func(name string) bool { return name == release })
	f.w.deployed = slices.DeleteFunc(f.w.deployed, func(name string) bool { return name == release })
	f.w.pods = slices.DeleteFunc(f.w.pods, func(pod corev1.Pod) bool { return pod.ObjectMeta.Name == release+"-0" })
	return nil
}

func (f *fakeHelm) ListReleases(_ context.Context, _ string) ([]string, error) {
	return slices.Clone(f.w.releases), nil
}

func (f *fakeHelm) ListDeployed(_ context.Context, _ string, _ string) ([]string, error) {
	return slices.Clone(f.w.deployed), nil
}

func (f *fakeHelm) ReleaseExists(_ context.Context, _ string) (bool, error) {
	return len(f.w.releases) > 0, nil
}

func (f *fakeHelm) CleanupNamespace(ctx context.Context, namespace string) error {
	for _, release := range slices.Clone(f.w.releases) {
		if err := f.Delete(ctx, release, namespace); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeHelm) ChartName(_ context.Context, _ string) (string, error) {
	return "app", nil
}

type fakeKubectl struct{ w *fakeWorld }

func (f *fakeKubectl) ListScaledResources(_ context.Context, _ string, kind kubectl.ResourceKind) ([]kubectl.ScaledResource, error) {
	resources := []kubectl.ScaledResource{}
	for _, pod := range f.w.pods {
		resources = append(resources, kubectl.ScaledResource{Name: pod.ObjectMeta.Name + "-" + string(kind), Actual: 1, Desired: 1})
	}
	return resources, nil
}

func (f *fakeKubectl) CreatePullSecret(_ context.Context, namespace string, name string, _ string) error {
	f.w.record("create-pull-secret %s %s", namespace, name)
	return nil
}

func (f *fakeKubectl) PatchDefaultServiceAccount(_ context.Context, namespace string, secretName string) error {
	f.w.record("patch-service-account %s %s", namespace, secretName)
	return nil
}

func newTestFramework(config Config, world *fakeWorld) *Framework {
	return &Framework{
		config:   config,
		releases: &fakeHelm{w: world},
		cluster:  &fakeCluster{w: world},
		kubectl:  &fakeKubectl{w: world},
		resolveLatest: func(_ context.Context, _ string, _ string) (string, error) {
			return "9.9.9", nil
		},
		pollDelay: time.Millisecond,
	}
}

func TestRunInstallOnly(t *testing.T) {
	// The namespace starts dirty, holding one stray release from a previous run
	world := &fakeWorld{
		namespaceExists: true,
		releases:        []string{"stray-release"},
		deployed:        []string{"stray-release"},
		pods:            []corev1.Pod{runningPod("stray-release-0")},
	}

	framework := newTestFramework(Config{
		Namespace:       "target",
		ReleaseName:     DefaultReleaseName,
		ChartArchive:    "./app-1.2.3.tgz",
		HelmRepo:        "https://charts.example.com",
		SkipUpgradeTest: true,
	}, world)

	if err := framework.Run(context.Background()); err != nil {
		t.Fatalf("Not expecting an error to be returned - %v", err)
	}

	expected := []string{
		"delete stray-release",
		"delete-namespace target",
		"create-namespace target",
		"install application-under-test ./app-1.2.3.tgz",
		"delete application-under-test",
		"delete-namespace target",
	}
	if !slices.Equal(world.trace, expected) {
		t.Errorf("Trace not as expected.\nExpected: %v\nActual:   %v", expected, world.trace)
	}

	if len(world.releases) != 0 {
		t.Errorf("Expected no releases to remain, instead got: %v", world.releases)
	}
	if world.namespaceExists {
		t.Error("Expected the namespace to be gone after teardown")
	}
}

func TestRunWithDependencyAndPullSecret(t *testing.T) {
	world := &fakeWorld{}

	framework := newTestFramework(Config{
		Namespace:              "target",
		ReleaseName:            DefaultReleaseName,
		ChartArchive:           "./app-1.2.3.tgz",
		DependencyChartArchive: "./deps-1.0.0.tgz",
		DockerConfig:           "./config.json",
		HelmRepo:               "https://charts.example.com",
		SkipUpgradeTest:        true,
	}, world)

	if err := framework.Run(context.Background()); err != nil {
		t.Fatalf("Not expecting an error to be returned - %v", err)
	}

	expected := []string{
		"create-namespace target",
		"create-pull-secret target " + PullSecretName,
		"patch-service-account target " + PullSecretName,
		"install dependency-release ./deps-1.0.0.tgz",
		"install application-under-test ./app-1.2.3.tgz",
		"delete application-under-test",
		"delete dependency-release",
		"delete-namespace target",
	}
	if !slices.Equal(world.trace, expected) {
		t.Errorf("Trace not as expected.\nExpected: %v\nActual:   %v", expected, world.trace)
	}
}

func TestUpgradeTest(t *testing.T) {
	world := &fakeWorld{namespaceExists: true}

	framework := newTestFramework(Config{
		Namespace:            "target",
		ReleaseName:          DefaultReleaseName,
		ChartArchive:         "./app-1.2.3.tgz",
		HelmRepo:             "https://charts.example.com",
		BaselineChartVersion: "1.2.2",
	}, world)

	if err := framework.UpgradeTest(context.Background()); err != nil {
		t.Fatalf("Not expecting an error to be returned - %v", err)
	}

	expected := []string{
		"install-from-repo https://charts.example.com app 1.2.2 app-baseline-release",
		"upgrade app-baseline-release ./app-1.2.3.tgz",
	}
	if !slices.Equal(world.trace, expected) {
		t.Errorf("Trace not as expected.\nExpected: %v\nActual:   %v", expected, world.trace)
	}
}

func TestUpgradeTestResolvesLatestBaseline(t *testing.T) {
	world := &fakeWorld{namespaceExists: true}

	framework := newTestFramework(Config{
		Namespace:            "target",
		ReleaseName:          DefaultReleaseName,
		ChartArchive:         "./app-1.2.3.tgz",
		HelmRepo:             "https://charts.example.com",
		BaselineChartVersion: BaselineVersionLatest,
	}, world)

	if err := framework.UpgradeTest(context.Background()); err != nil {
		t.Fatalf("Not expecting an error to be returned - %v", err)
	}

	if world.trace[0] != "install-from-repo https://charts.example.com app 9.9.9 app-baseline-release" {
		t.Errorf("Expected the resolved version to be installed, instead got: %s", world.trace[0])
	}
}

func TestRunAbortsOnFatalErrorWithoutTeardown(t *testing.T) {
	world := &fakeWorld{installErr: fmt.Errorf("install blew up")}

	framework := newTestFramework(Config{
		Namespace:       "target",
		ReleaseName:     DefaultReleaseName,
		ChartArchive:    "./app-1.2.3.tgz",
		HelmRepo:        "https://charts.example.com",
		SkipUpgradeTest: true,
	}, world)

	err := framework.Run(context.Background())
	if err == nil {
		t.Fatal("Was expecting the install error to be returned")
	}

	// Teardown is skipped on fatal errors, leaving the namespace behind
	if !world.namespaceExists {
		t.Error("Was not expecting teardown to run after a fatal error")
	}
}

func TestUpgradeSkippedByConfiguration(t *testing.T) {
	world := &fakeWorld{}

	framework := newTestFramework(Config{
		Namespace:       "target",
		ReleaseName:     DefaultReleaseName,
		ChartArchive:    "./app-1.2.3.tgz",
		HelmRepo:        "https://charts.example.com",
		SkipUpgradeTest: true,
	}, world)

	if err := framework.Run(context.Background()); err != nil {
		t.Fatalf("Not expecting an error to be returned - %v", err)
	}

	for _, entry := range world.trace {
		if entry == "upgrade app-baseline-release ./app-1.2.3.tgz" {
			t.Error("Was not expecting the upgrade test to run")
		}
	}
}
