package manifest

import (
	"fmt"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Lockfile is the frozen resolution plus enough manifest metadata to detect
// drift and to render the ecosystem's composer.lock shape.
type Lockfile struct {
	ContentHash  string `json:"content-hash"`
	Readme       []string `json:"_readme,omitempty"`
	PluginAPI    string `json:"plugin-api-version,omitempty"`

	Packages    []CandidatePackage `json:"packages"`
	PackagesDev []CandidatePackage `json:"packages-dev"`

	Aliases []Alias `json:"aliases"`

	MinimumStability string `json:"minimum-stability"`
	PreferStable     bool   `json:"prefer-stable"`
	PreferLowest     bool   `json:"prefer-lowest"`

	Platform    map[string]string `json:"platform"`
	PlatformDev map[string]string `json:"platform-dev"`
}

// Alias maps a package@version pin to an alias version string.
type Alias struct {
	Package string `json:"package"`
	Version string `json:"version"`
	Alias   string `json:"alias"`
}

// IntegrityHash computes the BLAKE3 digest of the lockfile's canonical
// byte-serialization. Distinct from ContentHash, which is the MD5 of the
// source manifest's dependency-affecting fields and is what CheckDrift
// compares; nothing in this module calls IntegrityHash.
func (l *Lockfile) IntegrityHash() (string, error) {
	encoded, err := MarshalCanonical(l)
	if err != nil {
		return "", err
	}
	return integrityHashBytes(encoded), nil
}

// CheckDrift recomputes m's content hash and compares it against the
// hash recorded when this lockfile was written, reporting
// CodeContentHashMismatch if the manifest's dependency-affecting fields
// have changed since. A caller that wants a fresh install to fail fast on
// a stale lockfile (spec.md §4.8's "parse, then validate") calls this
// before trusting l.Packages/l.PackagesDev.
func (l *Lockfile) CheckDrift(m *Manifest) error {
	expected, err := ComputeContentHash(m)
	if err != nil {
		return err
	}
	if expected != l.ContentHash {
		return phalanxerrors.New(phalanxerrors.CodeContentHashMismatch, fmt.Sprintf(
			"lock file is out of date: content-hash mismatch (expected %s, lock has %s)", expected, l.ContentHash))
	}
	return nil
}
