package repo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chartsuite/chartsuite/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.DisableLogging = true
	os.Exit(m.Run())
}

const indexYAML = `apiVersion: v1
entries:
  app:
    - version: 1.2.3
    - version: 1.10.0
    - version: 0.9.1
  broken:
    - version: not-a-version
  mixed:
    - version: not-a-version
    - version: 2.0.1
`

func newIndexServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/index.yaml" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(indexYAML))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLatestVersion(t *testing.T) {
	server := newIndexServer(t)

	version, err := LatestVersion(context.Background(), server.URL, "app")
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", version)
}

func TestLatestVersionTrailingSlash(t *testing.T) {
	server := newIndexServer(t)

	version, err := LatestVersion(context.Background(), server.URL+"/", "app")
	require.NoError(t, err)
	assert.Equal(t, "1.10.0", version)
}

func TestLatestVersionIgnoresUnparseable(t *testing.T) {
	server := newIndexServer(t)

	version, err := LatestVersion(context.Background(), server.URL, "mixed")
	require.NoError(t, err)
	assert.Equal(t, "2.0.1", version)
}

func TestLatestVersionNoParseableVersions(t *testing.T) {
	server := newIndexServer(t)

	_, err := LatestVersion(context.Background(), server.URL, "broken")
	assert.Error(t, err)
}

func TestLatestVersionUnknownChart(t *testing.T) {
	server := newIndexServer(t)

	_, err := LatestVersion(context.Background(), server.URL, "unknown")
	assert.Error(t, err)
}
