package registry

import "strings"

// Repository is one configured package source: a base URL serving a root
// packages.json and, via its providers-url template, per-package provider
// documents.
type Repository struct {
	Name    string
	BaseURL string
}

// rootIndexURL is the well-known root index path under BaseURL.
func (r Repository) rootIndexURL() string {
	return strings.TrimRight(r.BaseURL, "/") + "/packages.json"
}

// providerURL expands a providers-url template (e.g.
// "https://repo.example.com/p2/%package%.json") for id.
func providerURL(template, packageID string) string {
	return strings.ReplaceAll(template, "%package%", packageID)
}
