package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/phalanx-pm/phalanx/internal/archive"
	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/resolver"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
	"github.com/phalanx-pm/phalanx/internal/vcs"
	"github.com/phalanx-pm/phalanx/manifest"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// VCSCloner clones a single ref of a VCS-sourced package into destDir.
// internal/vcs.Adapter is the production implementation.
type VCSCloner interface {
	Clone(ctx context.Context, url, ref, destDir string) error
}

// Orchestrator lays a Resolution down on disk: per package, a cache
// lookup, a fetch-and-verify download on miss, extraction into a
// temporary sibling directory, and an atomic rename into place. VCS
// ("source") packages skip the cache/fetch/extract pipeline entirely and
// go straight through a VCSCloner.
type Orchestrator struct {
	fetcher   *fetch.Client
	cache     *cache.Coordinator
	extractor *archive.Extractor
	vcs       VCSCloner
	destFS    fsx.FS
	log       telemetry.Logger
	opts      Options
}

// New constructs an Orchestrator. log defaults to a no-op logger if nil.
// VCS sources are cloned with internal/vcs.Adapter unless WithVCSCloner
// replaces it.
func New(fetcher *fetch.Client, coordinator *cache.Coordinator, destFS fsx.FS, log telemetry.Logger, opts Options) *Orchestrator {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Orchestrator{
		fetcher:   fetcher,
		cache:     coordinator,
		extractor: archive.New(destFS),
		vcs:       vcs.New(),
		destFS:    destFS,
		log:       log,
		opts:      opts,
	}
}

// WithVCSCloner overrides the default VCS adapter, mainly for tests.
func (o *Orchestrator) WithVCSCloner(cloner VCSCloner) *Orchestrator {
	o.vcs = cloner
	return o
}

// Install lays down every package in res (production, plus dev unless
// Options.SkipDev) under Options.VendorDir, bounded by Options.Concurrency
// concurrent installs. A fatal integrity failure (checksum mismatch,
// unsupported archive, path traversal) in any one package cancels the
// whole batch and rolls back every directory this call staged; a
// non-fatal failure (a 404, a timeout) is recorded in Report.Failed and
// the rest of the batch continues.
func (o *Orchestrator) Install(ctx context.Context, res *resolver.Resolution) (*Report, error) {
	packages := append([]manifest.CandidatePackage{}, res.Packages...)
	if !o.opts.SkipDev {
		packages = append(packages, res.PackagesDev...)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, o.opts.concurrency())
	results := make(chan PackageResult, len(packages))

	var wg sync.WaitGroup
	var fatalOnce sync.Once
	var fatalErr error

	for _, cand := range packages {
		wg.Add(1)
		go func(cand manifest.CandidatePackage) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results <- PackageResult{ID: cand.ID, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			result := o.installOne(ctx, cand)
			if result.Err != nil {
				o.log.Warn(ctx, "orchestrator: install failed", "package", cand.ID.String(), "error", result.Err)
				if isFatal(result.Err) {
					fatalOnce.Do(func() {
						fatalErr = result.Err
						cancel()
					})
				}
			}
			results <- result
		}(cand)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	report := &Report{}
	for r := range results {
		if r.Err != nil {
			report.Failed = append(report.Failed, r)
			continue
		}
		report.Installed = append(report.Installed, r)
	}

	if fatalErr != nil {
		o.rollback(report.Installed)
		return report, fatalErr
	}
	return report, nil
}

// rollback removes every directory a partially-completed batch staged,
// mirroring the teacher's removeAllFS(targetDir) cleanup on a failed Pull.
func (o *Orchestrator) rollback(installed []PackageResult) {
	for _, r := range installed {
		_ = o.destFS.RemoveAll(r.Path)
	}
}

func (o *Orchestrator) installOne(ctx context.Context, cand manifest.CandidatePackage) PackageResult {
	destDir := o.destDirFor(cand)

	src := cand.Source
	if cand.Dist != nil {
		src = *cand.Dist
	}

	if src.Kind == manifest.SourceVCS {
		return o.installVCS(ctx, cand, src, destDir)
	}

	kind, ok := archiveKindOf(src)
	if !ok {
		return PackageResult{ID: cand.ID, Err: phalanxerrors.New(
			phalanxerrors.CodeUnsupportedArchive, "cannot determine archive kind for "+src.URL)}
	}

	cacheKey := fmt.Sprintf("%s@%s", cand.ID.String(), cand.Version.String())
	if data, ok := o.cache.Get(ctx, cache.ClassPackage, cacheKey); ok {
		if err := o.extractAndCommit(ctx, kind, bytes.NewReader(data), destDir); err != nil {
			return PackageResult{ID: cand.ID, Err: err}
		}
		return PackageResult{ID: cand.ID, Path: destDir, FromCache: true}
	}

	tmpPath, err := uniqueTempPath(o.destFS, o.opts.VendorDir, ".archive-"+cand.ID.Name)
	if err != nil {
		return PackageResult{ID: cand.ID, Err: err}
	}
	defer func() { _ = o.destFS.Remove(tmpPath) }()

	dl, err := o.fetcher.Download(ctx, []string{src.URL}, o.destFS, tmpPath, expectedChecksumOf(src), nil)
	if err != nil {
		return PackageResult{ID: cand.ID, Err: err}
	}

	data, err := o.destFS.ReadFile(dl.Path)
	if err != nil {
		return PackageResult{ID: cand.ID, Err: phalanxerrors.Wrap(phalanxerrors.CodeIO, "read downloaded archive", err)}
	}

	if err := o.extractAndCommit(ctx, kind, bytes.NewReader(data), destDir); err != nil {
		return PackageResult{ID: cand.ID, Err: err}
	}

	if err := o.cache.Put(ctx, cache.ClassPackage, cacheKey, data); err != nil {
		o.log.Warn(ctx, "orchestrator: cache store failed", "package", cand.ID.String(), "error", err)
	}

	return PackageResult{ID: cand.ID, Path: destDir}
}

// destDirFor lays out cand under o.opts.VendorDir/<vendor>/<name>, unless
// the manifest's extra.installer-paths names a template matching cand's
// type or id, in which case that template wins.
func (o *Orchestrator) destDirFor(cand manifest.CandidatePackage) string {
	if o.opts.Manifest != nil {
		if path, ok := o.opts.Manifest.ResolveInstallerPath(cand.ID, cand.Type); ok {
			return filepath.Clean(path)
		}
	}
	return filepath.Join(o.opts.VendorDir, cand.ID.Vendor, cand.ID.Name)
}

// installVCS clones a source-type candidate directly into destDir via a
// temporary sibling directory, mirroring extractAndCommit's
// clone-then-rename pattern so destDir never observes a partial checkout.
// VCS sources bypass the content cache entirely: a clone can't be
// content-addressed by a single hash the way a dist archive can.
func (o *Orchestrator) installVCS(ctx context.Context, cand manifest.CandidatePackage, src manifest.Source, destDir string) PackageResult {
	if src.VCSURL == "" {
		return PackageResult{ID: cand.ID, Err: phalanxerrors.New(
			phalanxerrors.CodeInvalidManifest, "vcs source missing url: "+cand.ID.String())}
	}

	parent := filepath.Dir(destDir)
	if err := o.destFS.MkdirAll(parent, 0o755); err != nil {
		return PackageResult{ID: cand.ID, Err: phalanxerrors.Wrap(phalanxerrors.CodeIO, "create "+parent, err)}
	}
	tmpDir := filepath.Join(parent, ".tmp-"+filepath.Base(destDir))
	_ = o.destFS.RemoveAll(tmpDir)

	if err := o.vcs.Clone(ctx, src.VCSURL, src.VCSRef, tmpDir); err != nil {
		_ = o.destFS.RemoveAll(tmpDir)
		return PackageResult{ID: cand.ID, Err: err}
	}

	_ = o.destFS.RemoveAll(destDir)
	if err := o.destFS.Rename(tmpDir, destDir); err != nil {
		_ = o.destFS.RemoveAll(tmpDir)
		return PackageResult{ID: cand.ID, Err: phalanxerrors.Wrap(phalanxerrors.CodeIO, "commit "+destDir, err)}
	}
	return PackageResult{ID: cand.ID, Path: destDir}
}

// extractAndCommit extracts r into a temporary directory alongside destDir
// and renames it into place once extraction succeeds in full, so destDir
// never observes a partially-written package.
func (o *Orchestrator) extractAndCommit(ctx context.Context, kind archive.Kind, r io.Reader, destDir string) error {
	parent := filepath.Dir(destDir)
	if err := o.destFS.MkdirAll(parent, 0o755); err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "create "+parent, err)
	}

	tmpDir := filepath.Join(parent, ".tmp-"+filepath.Base(destDir))
	_ = o.destFS.RemoveAll(tmpDir)

	if _, err := o.extractor.Extract(ctx, kind, r, tmpDir, archive.DefaultExtractOptions()); err != nil {
		_ = o.destFS.RemoveAll(tmpDir)
		return err
	}

	// Rename replaces destDir in one filesystem operation on every backend
	// this package runs against, but POSIX rename-over-existing-directory
	// requires the target be empty; clearing it first leaves a brief window
	// with neither the old nor new tree present on a reinstall.
	_ = o.destFS.RemoveAll(destDir)
	if err := o.destFS.Rename(tmpDir, destDir); err != nil {
		_ = o.destFS.RemoveAll(tmpDir)
		return phalanxerrors.Wrap(phalanxerrors.CodeIO, "commit "+destDir, err)
	}
	return nil
}

// uniqueTempPath reserves a unique filename under dir by opening and
// immediately closing a TempFile, then handing the caller the bare path to
// reopen (fetch.Client.Download wants a destination path, not a handle).
func uniqueTempPath(fs fsx.FS, dir, pattern string) (string, error) {
	f, err := fs.TempFile(dir, pattern+"-*")
	if err != nil {
		return "", phalanxerrors.Wrap(phalanxerrors.CodeIO, "reserve temp file", err)
	}
	name := f.Name()
	_ = f.Close()
	return name, nil
}

func archiveKindOf(src manifest.Source) (archive.Kind, bool) {
	if src.ArchiveKind != "" {
		return archive.Kind(src.ArchiveKind), true
	}
	return archive.DetectKind(src.URL)
}

func expectedChecksumOf(src manifest.Source) *fetch.ExpectedChecksum {
	if src.Checksum == "" {
		return nil
	}
	algo := fetch.AlgoSHA256
	switch src.ChecksumAlgo {
	case "sha1":
		algo = fetch.AlgoSHA1
	case "blake3":
		algo = fetch.AlgoBLAKE3
	}
	return &fetch.ExpectedChecksum{Algo: algo, Hex: src.Checksum}
}
