package registry

import (
	"encoding/json"

	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"
)

// providerDocument is the wire shape of a per-package provider document:
// one JSON object keyed by "vendor/name" whose value is a map of
// version-string to package metadata, modeled on the ecosystem's
// provider-*.json / p2 documents.
type providerDocument struct {
	Packages map[string]map[string]wirePackage `json:"packages"`
}

// rootIndex is the wire shape of a repository's root packages.json: a
// small bootstrap document pointing at provider-document URL templates,
// optionally inlining packages directly for small/static repositories.
type rootIndex struct {
	ProvidersURL string                            `json:"providers-url"`
	Packages     map[string]map[string]wirePackage `json:"packages"`
}

type wireSource struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

type wireDist struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	Shasum    string `json:"shasum"`
	Reference string `json:"reference"`
}

type wirePackage struct {
	Name        string            `json:"name"`
	Version     string            `json:"version"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	License     []string          `json:"license"`
	Keywords    []string          `json:"keywords"`
	Homepage    string            `json:"homepage"`
	Time        string            `json:"time"`
	Require     map[string]string `json:"require"`
	RequireDev  map[string]string `json:"require-dev"`
	Suggest     map[string]string `json:"suggest"`
	Provide     map[string]string `json:"provide"`
	Replace     map[string]string `json:"replace"`
	Conflict    map[string]string `json:"conflict"`
	Bin         []string          `json:"bin"`
	Source      *wireSource       `json:"source"`
	Dist        *wireDist         `json:"dist"`
	Extra       map[string]any    `json:"extra"`
}

func parseProviderDocument(data []byte) (*providerDocument, error) {
	var doc providerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func parseRootIndex(data []byte) (*rootIndex, error) {
	var idx rootIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// marshalInlineProviderDocument wraps a root index's inlined package
// versions back into the same providerDocument shape a standalone
// provider-document fetch would produce, so candidatesFromRepo has one
// parse path regardless of which wire shape supplied the data.
func marshalInlineProviderDocument(id manifest.PackageId, versions map[string]wirePackage) ([]byte, error) {
	doc := providerDocument{Packages: map[string]map[string]wirePackage{id.String(): versions}}
	return json.Marshal(doc)
}

// toCandidate converts one wire package entry into the domain model,
// defaulting Type to "library" the way the ecosystem's own tooling does
// when a provider document omits it. Entries whose version string fails
// to parse as semver are skipped by the caller rather than here, so one
// malformed entry in a large provider document doesn't need a second
// error path threaded through this conversion.
func (p wirePackage) toCandidate(id manifest.PackageId) (manifest.CandidatePackage, error) {
	v, err := version.Parse(p.Version)
	if err != nil {
		return manifest.CandidatePackage{}, err
	}
	pkgType := p.Type
	if pkgType == "" {
		pkgType = "library"
	}
	cand := manifest.CandidatePackage{
		ID:         id,
		Version:    v,
		Require:    p.Require,
		RequireDev: p.RequireDev,
		Suggest:    p.Suggest,
		Conflict:   p.Conflict,
		Provide:    p.Provide,
		Replace:    p.Replace,
		Type:       pkgType,
		Bin:        p.Bin,
		Description: p.Description,
		Keywords:   p.Keywords,
		Homepage:   p.Homepage,
		License:    p.License,
		Time:       p.Time,
		Extra:      p.Extra,
	}
	if p.Source != nil {
		cand.Source = manifest.Source{
			Kind:    manifest.SourceVCS,
			VCSURL:  p.Source.URL,
			VCSType: p.Source.Type,
			VCSRef:  p.Source.Reference,
		}
	}
	if p.Dist != nil {
		cand.Dist = &manifest.Source{
			Kind:         manifest.SourceArchive,
			URL:          p.Dist.URL,
			ArchiveKind:  p.Dist.Type,
			Checksum:     p.Dist.Shasum,
			ChecksumAlgo: "sha1",
		}
		cand.DistHash = p.Dist.Shasum
	}
	return cand, nil
}
