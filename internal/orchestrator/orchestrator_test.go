package orchestrator

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/resolver"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
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

func newTestOrchestrator(t *testing.T, opts Options) (*Orchestrator, fsx.FS) {
	t.Helper()
	destFS := fsx.NewMemory()
	coordinator := cache.NewCoordinator(destFS, cache.Config{RootPath: "/cache"}, telemetry.NewMetrics(prometheus.NewRegistry()), telemetry.Nop())
	t.Cleanup(coordinator.Close)
	o := New(fetch.New(), coordinator, destFS, telemetry.Nop(), opts)
	return o, destFS
}

func candidateWithArchive(t *testing.T, idStr, ver, url string) manifest.CandidatePackage {
	t.Helper()
	id, err := manifest.ParsePackageId(idStr)
	require.NoError(t, err)
	v, err := version.Parse(ver)
	require.NoError(t, err)
	return manifest.CandidatePackage{
		ID:      id,
		Version: v,
		Source:  manifest.Source{Kind: manifest.SourceArchive, URL: url, ArchiveKind: "zip"},
	}
}

func TestInstallDownloadsExtractsAndCommits(t *testing.T) {
	zipData := buildZip(t, map[string]string{
		"vendor-pkg-1.0.0/src/Main.php": "<?php\n",
		"vendor-pkg-1.0.0/README.md":    "hello\n",
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipData)
	}))
	defer srv.Close()

	o, destFS := newTestOrchestrator(t, Options{VendorDir: "vendor"})
	cand := candidateWithArchive(t, "vendor/pkg", "1.0.0", srv.URL+"/dist.zip")

	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{cand}}
	report, err := o.Install(context.Background(), res)
	require.NoError(t, err)
	require.True(t, report.OK())
	require.Len(t, report.Installed, 1)

	exists, err := destFS.Exists("vendor/vendor/pkg/vendor-pkg-1.0.0/src/Main.php")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInstallServesSecondRunFromCache(t *testing.T) {
	var hits int
	zipData := buildZip(t, map[string]string{"pkg-1.0.0/file.txt": "x"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write(zipData)
	}))
	defer srv.Close()

	o, _ := newTestOrchestrator(t, Options{VendorDir: "vendor"})
	cand := candidateWithArchive(t, "vendor/pkg", "1.0.0", srv.URL+"/dist.zip")
	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{cand}}

	_, err := o.Install(context.Background(), res)
	require.NoError(t, err)
	_, err = o.Install(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, 1, hits, "second install should be served from the package cache")
}

func TestInstallSkipsDevWhenRequested(t *testing.T) {
	zipData := buildZip(t, map[string]string{"f.txt": "x"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipData)
	}))
	defer srv.Close()

	o, _ := newTestOrchestrator(t, Options{VendorDir: "vendor", SkipDev: true})
	prod := candidateWithArchive(t, "vendor/prod", "1.0.0", srv.URL+"/a.zip")
	dev := candidateWithArchive(t, "vendor/devtool", "1.0.0", srv.URL+"/b.zip")

	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{prod}, PackagesDev: []manifest.CandidatePackage{dev}}
	report, err := o.Install(context.Background(), res)
	require.NoError(t, err)
	require.Len(t, report.Installed, 1)
	assert.Equal(t, "vendor/prod", report.Installed[0].ID.String())
}

// fakeVCSCloner stands in for internal/vcs.Adapter so VCS-source install
// wiring can be exercised against the in-memory fsx.FS the rest of this
// file's tests use: the real adapter clones through go-git directly onto
// the OS filesystem, which an in-memory fixture can't intercept.
type fakeVCSCloner struct {
	fs      fsx.FS
	cloned  []string
	failURL string
}

func (f *fakeVCSCloner) Clone(_ context.Context, url, ref, destDir string) error {
	f.cloned = append(f.cloned, url+"@"+ref)
	if url == f.failURL {
		return phalanxerrors.New(phalanxerrors.CodeIO, "clone failed: "+url)
	}
	if err := f.fs.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return f.fs.WriteFile(destDir+"/marker.txt", []byte(ref), 0o644)
}

func candidateWithVCS(t *testing.T, idStr, ver, url, ref string) manifest.CandidatePackage {
	t.Helper()
	id, err := manifest.ParsePackageId(idStr)
	require.NoError(t, err)
	v, err := version.Parse(ver)
	require.NoError(t, err)
	return manifest.CandidatePackage{
		ID:      id,
		Version: v,
		Source:  manifest.Source{Kind: manifest.SourceVCS, VCSType: "git", VCSURL: url, VCSRef: ref},
	}
}

func TestInstallVCSSourceClonesIntoVendorDir(t *testing.T) {
	o, destFS := newTestOrchestrator(t, Options{VendorDir: "vendor"})
	cloner := &fakeVCSCloner{fs: destFS}
	o.WithVCSCloner(cloner)

	cand := candidateWithVCS(t, "vendor/pkg", "dev-main", "https://example.com/vendor/pkg.git", "main")
	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{cand}}

	report, err := o.Install(context.Background(), res)
	require.NoError(t, err)
	require.True(t, report.OK())

	exists, err := destFS.Exists("vendor/vendor/pkg/marker.txt")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, []string{"https://example.com/vendor/pkg.git@main"}, cloner.cloned)
}

func TestInstallVCSSourceCloneFailureIsNotFatal(t *testing.T) {
	o, _ := newTestOrchestrator(t, Options{VendorDir: "vendor"})
	url := "https://example.com/vendor/pkg.git"
	o.WithVCSCloner(&fakeVCSCloner{fs: fsx.NewMemory(), failURL: url})

	cand := candidateWithVCS(t, "vendor/pkg", "dev-main", url, "main")
	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{cand}}

	report, err := o.Install(context.Background(), res)
	require.NoError(t, err, "a clone failure is a non-fatal per-package error, not a batch abort")
	assert.False(t, report.OK())
	require.Len(t, report.Failed, 1)
}

func TestInstallFatalChecksumMismatchAbortsBatchAndRollsBack(t *testing.T) {
	goodZip := buildZip(t, map[string]string{"ok-1.0.0/f.txt": "x"})
	badZip := buildZip(t, map[string]string{"bad-1.0.0/f.txt": "y"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.zip":
			w.Write(goodZip)
		default:
			w.Write(badZip)
		}
	}))
	defer srv.Close()

	o, destFS := newTestOrchestrator(t, Options{VendorDir: "vendor", Concurrency: 1})
	good := candidateWithArchive(t, "vendor/ok", "1.0.0", srv.URL+"/good.zip")
	bad := candidateWithArchive(t, "vendor/bad", "1.0.0", srv.URL+"/bad.zip")
	bad.Source.Checksum = strings.Repeat("0", 64)
	bad.Source.ChecksumAlgo = "sha256"

	res := &resolver.Resolution{Packages: []manifest.CandidatePackage{good, bad}}
	report, err := o.Install(context.Background(), res)
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodeChecksumMismatch, phalanxerrors.Code(err))

	exists, _ := destFS.Exists("vendor/vendor/ok")
	assert.False(t, exists, "a fatal integrity failure must roll back packages already staged in this batch")
}
