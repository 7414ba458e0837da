// Package fetch implements the shared HTTP client used to download package
// archives and registry metadata: a connection-pooled client with resumable
// downloads, exponential-backoff retries, mirror fallback, token-bucket
// throttling, streaming checksum verification, and per-host credentials.
//
// It generalizes the retry and auth shape of
// _examples/jmgilman-go/oci/client.go and
// _examples/jmgilman-go/oci/internal/oras/client.go away from OCI registry
// semantics toward plain HTTP(S) downloads over package archives and JSON
// metadata documents.
package fetch
