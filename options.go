// Package phalanx resolves, fetches, and installs PHP-ecosystem-compatible
// packages. This file contains functional options for configuring a Client.
package phalanx

import (
	"time"

	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/orchestrator"
	"github.com/phalanx-pm/phalanx/internal/registry"
	"github.com/phalanx-pm/phalanx/internal/resolver"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
)

// ClientOptions contains configuration options for the Client.
type ClientOptions struct {
	// FS provides filesystem operations for manifest/lockfile reads and
	// package installation. If nil, a default OS-backed filesystem rooted
	// at the current directory is used.
	FS fsx.FS

	// Repositories are the package sources consulted in order by Resolve.
	// DefaultClientOptions seeds the public Packagist mirror; an empty list
	// is rejected by NewWithOptions.
	Repositories []registry.Repository

	// HTTPConfig controls the shared fetcher's transport, retry, and
	// throttling behavior.
	HTTPConfig *HTTPConfig

	// CacheConfig controls the tiered content-addressed cache every
	// repository lookup and package download passes through.
	CacheConfig *CacheConfig

	// ResolverConfig bounds the dependency search.
	ResolverConfig *ResolverConfig

	// InstallConfig bounds the install orchestrator's batch behavior.
	InstallConfig *InstallConfig

	// Logger receives structured diagnostics from every internal
	// component. Defaults to a no-op logger.
	Logger telemetry.Logger

	// Metrics, when non-nil, receives the cache's hit/miss/eviction
	// gauges and counters. When nil, NewWithOptions builds a set on a
	// private Prometheus registry.
	Metrics *telemetry.Metrics
}

// HTTPConfig controls the shared fetch.Client's transport settings.
type HTTPConfig struct {
	// MaxRetries bounds retry attempts for connection failures and
	// retryable HTTP statuses (408, 429, 5xx).
	MaxRetries int

	// RequestTimeout bounds a single HTTP request, including any retries
	// of that request's underlying connection attempt.
	RequestTimeout time.Duration

	// ThrottleBPS caps aggregate download bandwidth in bytes/sec across
	// every fetch this client performs. Zero disables throttling.
	ThrottleBPS int64

	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// CacheConfig controls the tiered cache's size and storage root.
type CacheConfig struct {
	// MemoryMaxBytes bounds the in-process LRU tier.
	MemoryMaxBytes int64

	// DiskMaxBytes bounds the on-disk tier.
	DiskMaxBytes int64

	// RootPath is the on-disk cache directory, relative to FS.
	RootPath string
}

// ResolverConfig bounds the dependency resolver's search.
type ResolverConfig struct {
	// Timeout bounds the whole resolve; exceeding it yields
	// errors.CodeResolveCancelled with the goal stack attached.
	Timeout time.Duration

	// MaxCandidatesPerGoal caps how many candidate versions are considered
	// for a single unresolved requirement.
	MaxCandidatesPerGoal int

	// Platform declares the ambient platform packages (php, ext-*, the
	// tool's own plugin API) available without a registry lookup.
	Platform resolver.PlatformCapabilities
}

// InstallConfig bounds the orchestrator's batch install behavior.
type InstallConfig struct {
	// Concurrency caps simultaneous package installs. Zero selects
	// orchestrator.DefaultConcurrency().
	Concurrency int

	// VendorDir is the install root, relative to FS. Defaults to "vendor".
	VendorDir string
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*ClientOptions)

// WithFilesystem injects a custom filesystem implementation used by the
// client for manifest, lockfile, and package I/O.
func WithFilesystem(fs fsx.FS) ClientOption {
	return func(opts *ClientOptions) { opts.FS = fs }
}

// WithRepositories sets the ordered list of package sources Resolve
// consults. Later calls replace, rather than append to, any previous list.
func WithRepositories(repos ...registry.Repository) ClientOption {
	return func(opts *ClientOptions) { opts.Repositories = repos }
}

// WithHTTP configures the shared fetcher's retry and timeout behavior.
func WithHTTP(cfg HTTPConfig) ClientOption {
	return func(opts *ClientOptions) { opts.HTTPConfig = &cfg }
}

// WithThrottle caps aggregate download bandwidth in bytes/sec.
func WithThrottle(bytesPerSecond int64) ClientOption {
	return func(opts *ClientOptions) {
		if opts.HTTPConfig == nil {
			opts.HTTPConfig = &HTTPConfig{}
		}
		opts.HTTPConfig.ThrottleBPS = bytesPerSecond
	}
}

// WithCache configures the tiered cache's size limits and on-disk root.
func WithCache(cfg CacheConfig) ClientOption {
	return func(opts *ClientOptions) { opts.CacheConfig = &cfg }
}

// WithResolver configures the dependency resolver's search bounds and
// platform capability table.
func WithResolver(cfg ResolverConfig) ClientOption {
	return func(opts *ClientOptions) { opts.ResolverConfig = &cfg }
}

// WithInstall configures the install orchestrator's concurrency and vendor
// directory.
func WithInstall(cfg InstallConfig) ClientOption {
	return func(opts *ClientOptions) { opts.InstallConfig = &cfg }
}

// WithLogger sets the structured logger used by every internal component.
func WithLogger(log telemetry.Logger) ClientOption {
	return func(opts *ClientOptions) { opts.Logger = log }
}

// WithMetrics sets the collector set the cache records into.
func WithMetrics(metrics *telemetry.Metrics) ClientOption {
	return func(opts *ClientOptions) { opts.Metrics = metrics }
}

// DefaultClientOptions returns the client's defaults: an OS-backed
// filesystem rooted at the current directory, the public Packagist mirror
// as the sole repository, a no-op logger, and conservative resolver/cache/
// install bounds.
func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		FS:           nil, // filled by New if unset
		Repositories: []registry.Repository{{Name: "packagist.org", BaseURL: "https://repo.packagist.org"}},
		HTTPConfig:   nil,
		CacheConfig:  nil,
		ResolverConfig: &ResolverConfig{
			Timeout:              resolver.DefaultOptions().Timeout,
			MaxCandidatesPerGoal: resolver.DefaultOptions().MaxCandidatesPerGoal,
		},
		InstallConfig: &InstallConfig{VendorDir: "vendor"},
		Logger:        telemetry.Nop(),
		Metrics:       nil,
	}
}

// buildFetchOptions translates an *HTTPConfig into fetch.Options.
func buildFetchOptions(cfg *HTTPConfig) []fetch.Option {
	if cfg == nil {
		return nil
	}
	var opts []fetch.Option
	if cfg.MaxRetries > 0 {
		opts = append(opts, fetch.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, fetch.WithRequestTimeout(cfg.RequestTimeout))
	}
	if cfg.ThrottleBPS > 0 {
		opts = append(opts, fetch.WithThrottle(cfg.ThrottleBPS))
	}
	return opts
}

// buildCacheConfig translates a *CacheConfig into cache.Config.
func buildCacheConfig(cfg *CacheConfig) cache.Config {
	if cfg == nil {
		return cache.Config{}
	}
	return cache.Config{
		MemoryMaxBytes: cfg.MemoryMaxBytes,
		DiskMaxBytes:   cfg.DiskMaxBytes,
		RootPath:       cfg.RootPath,
	}
}

// buildResolverOptions translates a *ResolverConfig into resolver.Options.
func buildResolverOptions(cfg *ResolverConfig) resolver.Options {
	if cfg == nil {
		return resolver.DefaultOptions()
	}
	return resolver.Options{
		Timeout:              cfg.Timeout,
		MaxCandidatesPerGoal: cfg.MaxCandidatesPerGoal,
		Platform:             cfg.Platform,
	}
}

// buildInstallOptions translates an *InstallConfig into orchestrator.Options.
func buildInstallOptions(cfg *InstallConfig, skipDev bool) orchestrator.Options {
	if cfg == nil {
		return orchestrator.Options{VendorDir: "vendor", SkipDev: skipDev}
	}
	vendorDir := cfg.VendorDir
	if vendorDir == "" {
		vendorDir = "vendor"
	}
	return orchestrator.Options{
		Concurrency: cfg.Concurrency,
		VendorDir:   vendorDir,
		SkipDev:     skipDev,
	}
}
