// Package phalanx resolves, fetches, and installs PHP-ecosystem-compatible
// packages described by a composer.json-shaped manifest.
//
// # Overview
//
// A Client wires together the four stages a package manager runs through:
// a backtracking dependency resolver, a registry adapter that speaks the
// two-tier root-index/provider-document wire protocol, a content-addressed
// fetcher with resumable downloads, and an install orchestrator that lands
// the result on disk with atomic per-package commits.
//
//	client, err := phalanx.NewWithOptions(
//	    phalanx.WithRepositories(registry.Repository{Name: "packagist", BaseURL: "https://repo.packagist.org"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resolution, err := client.Resolve(ctx, "composer.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report, err := client.Install(ctx, "composer.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Locking
//
// Lock resolves a manifest and writes a composer.lock-shaped lockfile next
// to it, recording the content hash of the manifest's dependency-affecting
// fields so a later install can detect drift:
//
//	err = client.Lock(ctx, "composer.json", "composer.lock")
//
// # Installing
//
// Install accepts per-call options to skip dev requirements or install
// into a different directory than the one configured on the client:
//
//	report, err := client.Install(ctx, "composer.json",
//	    phalanx.WithSkipDev(),
//	    phalanx.WithVendorDir("build/vendor"),
//	)
//
// # Caching
//
// Every repository lookup and every downloaded package archive passes
// through a tiered content-addressed cache (in-memory, then on-disk, with a
// Bloom filter in front of the on-disk tier) before the fetcher or registry adapter is
// consulted; WithCache controls its size and root directory.
//
// # Filesystem Abstraction
//
// All filesystem access goes through the internal/fsx capability
// interfaces, so a Client can be pointed at an in-memory filesystem for
// tests via WithFilesystem(fsx.NewMemory()) instead of the local disk.
//
// # Error Handling
//
// Most errors returned by Resolve, Install and Lock implement
// errors.PlatformError, carrying a stable ErrorCode, a Retryable/Permanent
// classification, and a context map. An error that does not (such as
// NewWithOptions' option-validation error or a context cancellation)
// reports CodeUnknown and is not retryable:
//
//	if _, err := client.Install(ctx, "composer.json"); err != nil {
//	    if phalanxerrors.IsRetryable(err) {
//	        // safe to retry the whole operation
//	    }
//	    log.Printf("install failed (%s): %v", phalanxerrors.Code(err), err)
//	}
package phalanx
