package manifest

import "github.com/phalanx-pm/phalanx/version"

// SourceKind distinguishes how a CandidatePackage's bytes are obtained.
type SourceKind string

const (
	SourceArchive SourceKind = "dist"
	SourceVCS     SourceKind = "source"
)

// Source describes where a CandidatePackage's payload comes from.
type Source struct {
	Kind SourceKind

	// Archive fields (Kind == SourceArchive).
	URL          string
	ArchiveKind  string // zip, tar, tar.gz, tar.bz2, tar.xz, tar.zst
	Checksum     string // sha256 or sha1 hex digest, ecosystem-dependent
	ChecksumAlgo string

	// VCS fields (Kind == SourceVCS).
	VCSType string // git, hg, svn
	VCSURL  string
	VCSRef  string
}

// Autoload describes one autoload rule set (psr-4, psr-0, classmap, files).
type Autoload struct {
	PSR4      map[string][]string `json:"psr-4,omitempty"`
	PSR0      map[string][]string `json:"psr-0,omitempty"`
	Classmap  []string            `json:"classmap,omitempty"`
	Files     []string            `json:"files,omitempty"`
	Exclude   []string            `json:"exclude-from-classmap,omitempty"`
}

// CandidatePackage is a specific (PackageId, Version) as returned by a
// registry or recorded in a lockfile. It is immutable after construction.
type CandidatePackage struct {
	ID      PackageId
	Version version.Version

	Require    map[string]string // PackageId string -> Constraint string
	RequireDev map[string]string
	Suggest    map[string]string
	Conflict   map[string]string
	Provide    map[string]string
	Replace    map[string]string

	Source Source
	Dist   *Source // explicit dist block distinct from Source when both are present

	DistHash string // registry-reported dist shasum of the archive, if known in advance

	Type        string
	Autoload    Autoload
	AutoloadDev Autoload
	Bin         []string
	Description string
	Keywords    []string
	Homepage    string
	License     []string
	Time        string

	Extra map[string]any
}

// Key returns the (PackageId, Version) pair that uniquely identifies this
// candidate within a single resolution.
func (c CandidatePackage) Key() string { return c.ID.String() + "@" + c.Version.String() }
