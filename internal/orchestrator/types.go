package orchestrator

import (
	"runtime"

	"github.com/phalanx-pm/phalanx/manifest"
)

// Options bounds a batch install.
type Options struct {
	// Concurrency caps the number of packages installed at once. Zero
	// selects DefaultConcurrency().
	Concurrency int

	// SkipDev excludes a Resolution's PackagesDev side from the batch,
	// the equivalent of an install run with development requirements
	// turned off.
	SkipDev bool

	// VendorDir is the root directory packages are installed under, laid
	// out as VendorDir/<vendor>/<name>.
	VendorDir string

	// Manifest, when set, is consulted for extra.installer-paths: a
	// package whose type or id matches one of its path templates is
	// installed under the resolved template path instead of
	// VendorDir/<vendor>/<name>.
	Manifest *manifest.Manifest
}

// DefaultConcurrency mirrors a typical download-bound worker count: eight
// workers per core, capped at 100 so a single install run can't exhaust
// file descriptors or the fetcher's per-host connection pool.
func DefaultConcurrency() int {
	n := runtime.NumCPU() * 8
	if n > 100 {
		n = 100
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency()
}

// PackageResult reports the outcome of installing one package.
type PackageResult struct {
	ID        manifest.PackageId
	Path      string
	FromCache bool
	Err       error
}

// Report is the outcome of a batch install.
type Report struct {
	Installed []PackageResult
	Failed    []PackageResult
}

// OK reports whether every package in the batch installed successfully.
func (r *Report) OK() bool { return len(r.Failed) == 0 }
