// Package phalanx resolves, fetches, and installs PHP-ecosystem-compatible
// packages. This file contains the main client interface and implementation.
package phalanx

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/orchestrator"
	"github.com/phalanx-pm/phalanx/internal/registry"
	"github.com/phalanx-pm/phalanx/internal/resolver"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
	"github.com/phalanx-pm/phalanx/manifest"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Client resolves, fetches, and installs packages for a single project. It
// wires a resolver.Solver, a registry.Client, a fetch.Client, a
// cache.Coordinator, and an orchestrator.Orchestrator behind one
// configuration surface. The client is safe for concurrent use.
type Client struct {
	options *ClientOptions

	fetcher *fetch.Client
	cache   *cache.Coordinator
	reg     *registry.Client

	mu sync.RWMutex
}

// New creates a new Client with default configuration: the public
// Packagist mirror as its sole repository and an OS-backed filesystem
// rooted at the current directory.
func New() (*Client, error) {
	return NewWithOptions()
}

// NewWithOptions creates a new Client with custom configuration. It accepts
// functional options to customize repositories, caching, HTTP behavior, and
// resolver/install bounds.
//
// Example usage:
//
//	client, err := phalanx.NewWithOptions(
//	    phalanx.WithRepositories(registry.Repository{Name: "packagist", BaseURL: "https://repo.packagist.org"}),
//	)
//	if err != nil {
//	    return err
//	}
func NewWithOptions(opts ...ClientOption) (*Client, error) {
	options := DefaultClientOptions()
	for _, opt := range opts {
		opt(options)
	}

	if options.FS == nil {
		options.FS = fsx.NewLocal(".")
	}
	if options.Logger == nil {
		options.Logger = telemetry.Nop()
	}

	if err := validateClientOptions(options); err != nil {
		return nil, fmt.Errorf("invalid client options: %w", err)
	}

	metrics := options.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics(prometheus.NewRegistry())
	}

	coordinator := cache.NewCoordinator(options.FS, buildCacheConfig(options.CacheConfig), metrics, options.Logger)
	fetcher := fetch.New(buildFetchOptions(options.HTTPConfig)...)
	reg := registry.NewClient(fetcher, coordinator, options.Repositories, options.Logger)

	return &Client{
		options: options,
		fetcher: fetcher,
		cache:   coordinator,
		reg:     reg,
	}, nil
}

// validateClientOptions validates the client options for correctness,
// checking for invalid combinations and missing required values.
func validateClientOptions(opts *ClientOptions) error {
	if opts == nil {
		return fmt.Errorf("client options cannot be nil")
	}
	if len(opts.Repositories) == 0 {
		return fmt.Errorf("at least one repository is required")
	}
	for _, repo := range opts.Repositories {
		if repo.BaseURL == "" {
			return fmt.Errorf("repository %q: base URL cannot be empty", repo.Name)
		}
	}
	return nil
}

// Close stops the cache coordinator's background cleanup goroutine.
func (c *Client) Close() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.cache.Close()
}

// Resolve reads and parses the manifest at manifestPath and runs the
// dependency solver against the client's configured repositories,
// returning every package the project (and, unless excluded by the
// resolver's own options, its dev requirements) needs at a mutually
// compatible set of versions.
func (c *Client) Resolve(ctx context.Context, manifestPath string) (*resolver.Resolution, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, err := c.readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	solver := resolver.New(c.reg, buildResolverOptions(c.options.ResolverConfig))
	return solver.Resolve(ctx, m)
}

// Install resolves the manifest at manifestPath and lands every resolved
// package under the configured vendor directory, fetching (or serving from
// cache) and extracting each one. A fatal integrity failure in any single
// package aborts and rolls back the whole batch; see
// internal/orchestrator.Install for the precise semantics.
func (c *Client) Install(ctx context.Context, manifestPath string, opts ...InstallOption) (*orchestrator.Report, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	params := &installParams{}
	for _, opt := range opts {
		opt(params)
	}

	m, err := c.readManifest(manifestPath)
	if err != nil {
		return nil, err
	}

	if params.lockPath != "" {
		if err := c.checkLockDrift(params.lockPath, m); err != nil {
			return nil, err
		}
	}

	solver := resolver.New(c.reg, buildResolverOptions(c.options.ResolverConfig))
	res, err := solver.Resolve(ctx, m)
	if err != nil {
		return nil, err
	}

	installOpts := buildInstallOptions(c.options.InstallConfig, params.skipDev)
	if params.vendorDir != "" {
		installOpts.VendorDir = params.vendorDir
	}
	installOpts.Manifest = m

	orch := orchestrator.New(c.fetcher, c.cache, c.options.FS, c.options.Logger, installOpts)
	return orch.Install(ctx, res)
}

// checkLockDrift reads and parses the lockfile at lockPath, if it exists,
// and compares its content hash against m, failing fast with
// CodeContentHashMismatch rather than installing a stale resolution. A
// missing lockfile is not an error: the caller is installing for the
// first time.
func (c *Client) checkLockDrift(lockPath string, m *manifest.Manifest) error {
	data, err := c.options.FS.ReadFile(lockPath)
	if err != nil {
		return nil
	}
	lock, err := manifest.ParseLockfile(data)
	if err != nil {
		return err
	}
	return lock.CheckDrift(m)
}

// Lock resolves the manifest at manifestPath and writes a lockfile
// recording the resolved package set and the manifest's content hash, so a
// later install can detect when the manifest has drifted since the last
// lock was written.
func (c *Client) Lock(ctx context.Context, manifestPath, lockPath string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, err := c.readManifest(manifestPath)
	if err != nil {
		return err
	}

	solver := resolver.New(c.reg, buildResolverOptions(c.options.ResolverConfig))
	res, err := solver.Resolve(ctx, m)
	if err != nil {
		return err
	}

	contentHash, err := manifest.ComputeContentHash(m)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeInvalidLockfile, "compute content hash", err)
	}

	lock := &manifest.Lockfile{
		ContentHash:      contentHash,
		Packages:         res.Packages,
		PackagesDev:      res.PackagesDev,
		MinimumStability: m.MinimumStability,
		PreferStable:     m.PreferStable,
	}

	data, err := manifest.MarshalCanonical(lock)
	if err != nil {
		return phalanxerrors.Wrap(phalanxerrors.CodeInvalidLockfile, "marshal lockfile", err)
	}

	writer := manifest.NewAtomicWriter(c.options.FS)
	if err := writer.WriteFile(lockPath, data, 0o644); err != nil {
		writer.Rollback()
		return err
	}
	writer.Commit()
	return nil
}

func (c *Client) readManifest(manifestPath string) (*manifest.Manifest, error) {
	data, err := c.options.FS.ReadFile(manifestPath)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidManifest, "read "+manifestPath, err)
	}
	return manifest.ParseManifest(data)
}

// installParams accumulates InstallOption settings for a single Install call.
type installParams struct {
	skipDev   bool
	vendorDir string
	lockPath  string
}

// InstallOption is a functional option for a single Install call.
type InstallOption func(*installParams)

// WithSkipDev excludes the manifest's require-dev packages from this
// install.
func WithSkipDev() InstallOption {
	return func(p *installParams) { p.skipDev = true }
}

// WithVendorDir overrides the configured vendor directory for this install
// call only.
func WithVendorDir(dir string) InstallOption {
	return func(p *installParams) { p.vendorDir = dir }
}

// WithLockfile makes Install check lockPath's content-hash against the
// manifest before resolving, failing with CodeContentHashMismatch if the
// manifest changed since the lockfile was last written. A missing
// lockfile at lockPath is not an error.
func WithLockfile(lockPath string) InstallOption {
	return func(p *installParams) { p.lockPath = lockPath }
}
