// Package orchestrator lays a resolved dependency set down on disk: for
// every package it checks the content-addressed cache, falls back to a
// fetch-and-verify download, extracts into a temporary sibling directory,
// and atomically renames that sibling into place. It generalizes the
// cache-check/fetch/extract-to-temp/atomic-commit shape of
// _examples/jmgilman-go/oci/client.go's Pull/PullWithCache/
// extractAtomically/moveFiles away from single-artifact OCI pulls toward
// a bounded-concurrency batch of package installs.
package orchestrator
