package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"
)

func newTestClient(t *testing.T, repoBody string) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(repoBody))
	}))
	t.Cleanup(srv.Close)

	coord := cache.NewCoordinator(fsx.NewMemory(), cache.Config{RootPath: "/cache"}, telemetry.NewMetrics(prometheus.NewRegistry()), telemetry.Nop())
	t.Cleanup(coord.Close)

	client := NewClient(fetch.New(), coord, []Repository{{Name: "test", BaseURL: srv.URL}}, telemetry.Nop())
	return client, srv
}

func TestResolveFromInlinedPackages(t *testing.T) {
	body := `{
		"packages": {
			"monolog/monolog": {
				"1.0.0": {"name": "monolog/monolog", "version": "1.0.0"},
				"2.0.0": {"name": "monolog/monolog", "version": "2.0.0"}
			}
		}
	}`
	client, _ := newTestClient(t, body)

	id, err := manifest.ParsePackageId("monolog/monolog")
	require.NoError(t, err)
	constraint, err := version.ParseConstraint("^1.0")
	require.NoError(t, err)

	candidates, err := client.Resolve(context.Background(), id, constraint)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "1.0.0", candidates[0].Version.String())
}

func TestResolveNoMatchingCandidates(t *testing.T) {
	body := `{"packages": {"monolog/monolog": {"1.0.0": {"name": "monolog/monolog", "version": "1.0.0"}}}}`
	client, _ := newTestClient(t, body)

	id, err := manifest.ParsePackageId("monolog/monolog")
	require.NoError(t, err)
	constraint, err := version.ParseConstraint("^9.0")
	require.NoError(t, err)

	_, err = client.Resolve(context.Background(), id, constraint)
	require.Error(t, err)
}
