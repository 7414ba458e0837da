package registry

import (
	"context"
	"io"
	"sort"

	"github.com/phalanx-pm/phalanx/internal/cache"
	"github.com/phalanx-pm/phalanx/internal/fetch"
	"github.com/phalanx-pm/phalanx/internal/telemetry"
	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Client is the resolver's only window onto the registry protocol:
// Resolve fetches (or serves from cache) the candidate list for one
// package, generalizing
// _examples/jmgilman-go/oci/internal/oras/client.go's NewRepository +
// Pull split (construct a repository handle, then fetch one artifact)
// into a repository-list + per-package provider-document fetch.
type Client struct {
	fetcher *fetch.Client
	cache   *cache.Coordinator
	repos   []Repository
	log     telemetry.Logger
}

// NewClient wires a fetch.Client and cache.Coordinator to a configured
// repository list. Resolve queries every repository in order and pools
// their candidates; a repository whose lookup fails is logged and skipped,
// and the rest are still consulted.
func NewClient(fetcher *fetch.Client, coordinator *cache.Coordinator, repos []Repository, log telemetry.Logger) *Client {
	if log == nil {
		log = telemetry.Nop()
	}
	return &Client{fetcher: fetcher, cache: coordinator, repos: repos, log: log}
}

// Resolve returns every candidate for id whose version satisfies
// constraint, across all configured repositories, ordered newest-first by
// semver precedence (the resolver re-orders by its own prefer-stable /
// prefer-selected rules; this is just a stable, deterministic starting
// order).
func (c *Client) Resolve(ctx context.Context, id manifest.PackageId, constraint version.Constraint) ([]manifest.CandidatePackage, error) {
	var all []manifest.CandidatePackage
	for _, repo := range c.repos {
		candidates, err := c.candidatesFromRepo(ctx, repo, id)
		if err != nil {
			c.log.Warn(ctx, "registry: repository lookup failed", "repository", repo.Name, "package", id.String(), "error", err)
			continue
		}
		all = append(all, candidates...)
	}

	matched := make([]manifest.CandidatePackage, 0, len(all))
	for _, cand := range all {
		if constraint.Matches(cand.Version) {
			matched = append(matched, cand)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Version.Compare(matched[j].Version) > 0
	})
	if len(matched) == 0 {
		return nil, phalanxerrors.New(phalanxerrors.CodePackageNotFound, "no candidates satisfy constraint for "+id.String())
	}
	return matched, nil
}

// candidatesFromRepo fetches (or serves from cache) every known version
// of id from one repository.
func (c *Client) candidatesFromRepo(ctx context.Context, repo Repository, id manifest.PackageId) ([]manifest.CandidatePackage, error) {
	metaKey := repo.Name + ":" + id.String()
	if data, ok := c.cache.Get(ctx, cache.ClassMetadata, metaKey); ok {
		doc, err := parseProviderDocument(data)
		if err == nil {
			return candidatesFromDocument(doc, id), nil
		}
	}

	idx, err := c.fetchRootIndex(ctx, repo)
	if err != nil {
		return nil, err
	}

	var body []byte
	if pkgs, ok := idx.Packages[id.String()]; ok {
		// Small/static repositories inline packages directly in the root
		// index; synthesize a provider document so the cache format is
		// uniform regardless of where the data came from.
		body, err = marshalInlineProviderDocument(id, pkgs)
	} else if idx.ProvidersURL != "" {
		body, err = c.fetchProviderDocument(ctx, idx.ProvidersURL, id)
	} else {
		return nil, phalanxerrors.New(phalanxerrors.CodePackageNotFound, id.String()+" not found in repository "+repo.Name)
	}
	if err != nil {
		return nil, err
	}

	if putErr := c.cache.Put(ctx, cache.ClassMetadata, metaKey, body); putErr != nil {
		c.log.Warn(ctx, "registry: failed to cache metadata", "package", id.String(), "error", putErr)
	}

	doc, err := parseProviderDocument(body)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeInvalidManifest, "parse provider document for "+id.String(), err)
	}
	return candidatesFromDocument(doc, id), nil
}

func (c *Client) fetchRootIndex(ctx context.Context, repo Repository) (*rootIndex, error) {
	repoKey := "root:" + repo.Name
	if data, ok := c.cache.Get(ctx, cache.ClassRepository, repoKey); ok {
		return parseRootIndex(data)
	}

	body, err := c.getURL(ctx, repo.rootIndexURL())
	if err != nil {
		return nil, err
	}
	if putErr := c.cache.Put(ctx, cache.ClassRepository, repoKey, body); putErr != nil {
		c.log.Warn(ctx, "registry: failed to cache repository index", "repository", repo.Name, "error", putErr)
	}
	return parseRootIndex(body)
}

func (c *Client) fetchProviderDocument(ctx context.Context, template string, id manifest.PackageId) ([]byte, error) {
	return c.getURL(ctx, providerURL(template, id.String()))
}

func (c *Client) getURL(ctx context.Context, url string) ([]byte, error) {
	body, err := c.fetcher.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, phalanxerrors.Wrap(phalanxerrors.CodeIO, "read "+url, err)
	}
	return data, nil
}

func candidatesFromDocument(doc *providerDocument, id manifest.PackageId) []manifest.CandidatePackage {
	versions, ok := doc.Packages[id.String()]
	if !ok {
		return nil
	}
	out := make([]manifest.CandidatePackage, 0, len(versions))
	for _, wp := range versions {
		cand, err := wp.toCandidate(id)
		if err != nil {
			continue // malformed version string in the index; skip rather than fail the whole lookup
		}
		out = append(out, cand)
	}
	return out
}
