package repo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cenkalti/backoff/v5"
	"gopkg.in/yaml.v3"

	"github.com/chartsuite/chartsuite/pkg/logger"
)

// fetchMaxElapsed bounds the total time spent retrying the index download
var fetchMaxElapsed = 1 * time.Minute

// Index is the subset of a chart repository index.yaml needed for version resolution
type Index struct {
	Entries map[string][]Entry `yaml:"entries"`
}

// Entry is a single published version of a chart
type Entry struct {
	Version string `yaml:"version"`
}

// LatestVersion fetches the repository index and returns the highest published version
// of the named chart.
//
// The index download is retried with exponential backoff as chart repositories are
// often behind flaky CDNs. Published versions that fail to parse as semver are ignored.
func LatestVersion(ctx context.Context, repoURL string, chart string) (string, error) {
	indexURL := strings.TrimRight(repoURL, "/") + "/index.yaml"

	logger.Log("Looking up latest version of chart '%s' from '%s'", chart, indexURL)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.MaxInterval = 15 * time.Second

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, indexURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch repo index, status code %d", resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	}

	notify := func(err error, d time.Duration) {
		logger.Log("Failed to fetch repo index: %s. Retrying in %s...", err, d.Round(time.Second))
	}

	body, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(bo),
		backoff.WithMaxElapsedTime(fetchMaxElapsed),
		backoff.WithNotify(notify),
	)
	if err != nil {
		return "", fmt.Errorf("failed to fetch repo index from '%s': %w", indexURL, err)
	}

	var index Index
	if err := yaml.Unmarshal(body, &index); err != nil {
		return "", fmt.Errorf("failed to unmarshal index.yaml from '%s': %w", indexURL, err)
	}

	var latest *semver.Version
	for _, entry := range index.Entries[chart] {
		version, err := semver.NewVersion(entry.Version)
		if err != nil {
			// We'll ignore versions we can't parse
			continue
		}
		if latest == nil || version.GreaterThan(latest) {
			latest = version
		}
	}
	if latest == nil {
		return "", fmt.Errorf("no parseable versions of chart '%s' found in '%s'", chart, indexURL)
	}

	logger.Log("Resolved latest version of chart '%s' to %s", chart, latest.Original())
	return latest.Original(), nil
}
