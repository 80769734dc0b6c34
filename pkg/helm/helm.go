package helm

import (
	"context"
	"fmt"
	"strings"

	"github.com/chartsuite/chartsuite/pkg/logger"
)

const (
	// commandTimeout is passed to every helm command that supports an intrinsic wait
	// so that install, upgrade and uninstall block until helm itself reports completion
	commandTimeout = "20000s"

	// baselineRepoAlias is the fixed alias under which the baseline chart repository is registered
	baselineRepoAlias = "baseline"
)

// PreconditionError is returned when a release that was expected to be present in the
// deployed set could not be found, e.g. the baseline release before an upgrade.
type PreconditionError struct {
	Release   string
	Namespace string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("unable to find expected release '%s' in namespace '%s'", e.Release, e.Namespace)
}

// CommandRunner runs an external command and returns its captured stdout
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Helm sequences the install, upgrade and delete operations of releases through the helm CLI
type Helm struct {
	runner CommandRunner
}

// New creates a new Helm wrapper using the provided runner
func New(runner CommandRunner) *Helm {
	return &Helm{runner: runner}
}

// Install installs the chart archive under the given release name, blocking until helm
// reports completion. A command failure is fatal and is never retried.
func (h *Helm) Install(ctx context.Context, release string, archive string, namespace string) error {
	logger.Log("Installing release '%s' from chart archive '%s'", release, archive)
	_, err := h.runner.Run(ctx, "helm", "install", "--debug", release, archive,
		"--namespace="+namespace,
		"--wait", "--timeout", commandTimeout)
	return err
}

// InstallFromRepo installs a specific chart version from a remote repository under the
// given release name. The repository is registered and refreshed first; each of the
// three steps is a separate fatal-on-failure command and later steps are never attempted
// once one fails.
func (h *Helm) InstallFromRepo(ctx context.Context, repoURL string, chart string, version string, release string, namespace string) error {
	logger.Log("Adding helm repo '%s'", repoURL)
	if _, err := h.runner.Run(ctx, "helm", "repo", "add", "--debug", baselineRepoAlias, repoURL); err != nil {
		return err
	}

	logger.Log("Updating helm repos")
	if _, err := h.runner.Run(ctx, "helm", "repo", "update"); err != nil {
		return err
	}

	logger.Log("Installing release '%s' from chart '%s/%s' version %s", release, baselineRepoAlias, chart, version)
	_, err := h.runner.Run(ctx, "helm", "install", "--debug", release, baselineRepoAlias+"/"+chart,
		"--version="+version,
		"--namespace="+namespace,
		"--wait", "--timeout", commandTimeout)
	return err
}

// Upgrade upgrades the baseline release in place to the provided chart archive. The
// baseline must currently be in the deployed set; if it is not, a [PreconditionError]
// is returned and no upgrade command is issued. No rollback is attempted on failure.
func (h *Helm) Upgrade(ctx context.Context, baseline string, archive string, namespace string) error {
	deployed, err := h.ListDeployed(ctx, namespace, baseline)
	if err != nil {
		return err
	}

	found := false
	for _, name := range deployed {
		if name == baseline {
			found = true
		}
	}
	if !found {
		return &PreconditionError{Release: baseline, Namespace: namespace}
	}

	logger.Log("Upgrading release '%s' from chart archive '%s'", baseline, archive)
	_, err = h.runner.Run(ctx, "helm", "upgrade", baseline, archive,
		"--namespace", namespace,
		"--debug", "--wait", "--timeout", commandTimeout)
	return err
}

// Delete uninstalls the named release with an extended timeout
func (h *Helm) Delete(ctx context.Context, release string, namespace string) error {
	logger.Log("Deleting release '%s'", release)
	_, err := h.runner.Run(ctx, "helm", "uninstall", "--debug", "--timeout="+commandTimeout, release,
		"--namespace", namespace)
	return err
}

// ListReleases returns the names of all releases in the namespace, in any state
func (h *Helm) ListReleases(ctx context.Context, namespace string) ([]string, error) {
	output, err := h.runner.Run(ctx, "helm", "ls", "--all", "--namespace="+namespace, "-q")
	if err != nil {
		return nil, err
	}
	return splitNames(output), nil
}

// ListDeployed returns the names of the releases currently in the deployed state. If a
// filter is provided the listing is restricted to releases exactly matching that name.
func (h *Helm) ListDeployed(ctx context.Context, namespace string, filter string) ([]string, error) {
	args := []string{"ls", "--deployed", "--namespace=" + namespace, "-q"}
	if filter != "" {
		args = append(args, "--filter", "^"+filter+"$")
	}

	output, err := h.runner.Run(ctx, "helm", args...)
	if err != nil {
		return nil, err
	}
	return splitNames(output), nil
}

// ReleaseExists reports whether any release at all exists in the namespace
func (h *Helm) ReleaseExists(ctx context.Context, namespace string) (bool, error) {
	releases, err := h.ListReleases(ctx, namespace)
	if err != nil {
		return false, err
	}
	return len(releases) > 0, nil
}

// CleanupNamespace deletes every release found in the namespace
func (h *Helm) CleanupNamespace(ctx context.Context, namespace string) error {
	logger.Log("Cleaning up namespace, deleting all releases in namespace '%s'", namespace)

	releases, err := h.ListReleases(ctx, namespace)
	if err != nil {
		return err
	}

	for _, release := range releases {
		logger.Log("Cleaning up release: %s", release)
		if err := h.Delete(ctx, release, namespace); err != nil {
			return err
		}
	}
	return nil
}

func splitNames(output string) []string {
	names := []string{}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			names = append(names, line)
		}
	}
	return names
}
