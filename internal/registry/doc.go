// Package registry adapts the resolver's candidate lookups to the
// ecosystem's HTTP registry protocol: a root packages.json index per
// repository plus per-package provider documents, fetched through
// internal/fetch and cached through internal/cache. The resolver never
// speaks HTTP directly — this package is the only thing that does,
// generalizing the repository-construction shape of
// _examples/jmgilman-go/oci/internal/oras/client.go's NewRepository away
// from OCI manifests toward JSON package indexes.
package registry
