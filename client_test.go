package phalanx

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/registry"
	"github.com/phalanx-pm/phalanx/manifest"
)

func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestServer(t *testing.T, distZip []byte) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/packages.json":
			fmt.Fprintf(w, `{
				"packages": {
					"acme/core": {
						"1.0.0": {
							"name": "acme/core",
							"version": "1.0.0",
							"dist": {"type": "zip", "url": "%s/dist/acme-core-1.0.0.zip", "shasum": ""}
						}
					}
				}
			}`, srv.URL)
		case "/dist/acme-core-1.0.0.zip":
			w.Write(distZip)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func newTestClient(t *testing.T, srv *httptest.Server, destFS fsx.FS) *Client {
	t.Helper()
	client, err := NewWithOptions(
		WithFilesystem(destFS),
		WithRepositories(registry.Repository{Name: "test", BaseURL: srv.URL}),
	)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func writeManifest(t *testing.T, destFS fsx.FS, path string) {
	t.Helper()
	require.NoError(t, destFS.WriteFile(path, []byte(`{
		"name": "acme/app",
		"require": {"acme/core": "^1.0"}
	}`), 0o644))
}

func TestNewWithOptionsRejectsEmptyRepositoryList(t *testing.T) {
	_, err := NewWithOptions(WithRepositories())
	assert.Error(t, err)
}

func TestResolveReturnsSatisfyingCandidate(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	destFS := fsx.NewMemory()
	writeManifest(t, destFS, "composer.json")
	client := newTestClient(t, srv, destFS)

	res, err := client.Resolve(context.Background(), "composer.json")
	require.NoError(t, err)
	require.Len(t, res.Packages, 1)
	assert.Equal(t, "acme/core", res.Packages[0].ID.String())
	assert.Equal(t, "1.0.0", res.Packages[0].Version.String())
}

func TestInstallLandsResolvedPackageUnderVendorDir(t *testing.T) {
	zipData := buildZip(t, map[string]string{"acme-core-1.0.0/src/Core.php": "<?php\n"})
	srv := newTestServer(t, zipData)
	defer srv.Close()

	destFS := fsx.NewMemory()
	writeManifest(t, destFS, "composer.json")
	client := newTestClient(t, srv, destFS)

	report, err := client.Install(context.Background(), "composer.json")
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Installed, 1)

	exists, err := destFS.Exists("vendor/acme/core/acme-core-1.0.0/src/Core.php")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInstallWithVendorDirOverride(t *testing.T) {
	zipData := buildZip(t, map[string]string{"acme-core-1.0.0/f.txt": "x"})
	srv := newTestServer(t, zipData)
	defer srv.Close()

	destFS := fsx.NewMemory()
	writeManifest(t, destFS, "composer.json")
	client := newTestClient(t, srv, destFS)

	_, err := client.Install(context.Background(), "composer.json", WithVendorDir("build/vendor"))
	require.NoError(t, err)

	exists, err := destFS.Exists("build/vendor/acme/core/acme-core-1.0.0/f.txt")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLockWritesCanonicalLockfileWithContentHash(t *testing.T) {
	srv := newTestServer(t, nil)
	defer srv.Close()

	destFS := fsx.NewMemory()
	writeManifest(t, destFS, "composer.json")
	client := newTestClient(t, srv, destFS)

	err := client.Lock(context.Background(), "composer.json", "composer.lock")
	require.NoError(t, err)

	data, err := destFS.ReadFile("composer.lock")
	require.NoError(t, err)

	lock, err := manifest.ParseLockfile(data)
	require.NoError(t, err)
	assert.NotEmpty(t, lock.ContentHash)
	require.Len(t, lock.Packages, 1)
	assert.Equal(t, "acme/core", lock.Packages[0].ID.String())
}
