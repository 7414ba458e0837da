// Package version implements the semver-like Version and Constraint types
// that the resolver and lockfile codec operate on. Parsing and comparison
// are delegated to Masterminds/semver; this package adds the leading-"v"
// tolerance and disjunction-of-ranges constraint grammar the package
// manager's ecosystem expects on top of it.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// Version wraps a parsed semantic version. The zero value is not valid;
// use Parse.
type Version struct {
	raw string
	sv  *semver.Version
}

// Parse parses s as a Version, stripping one leading "v" if present.
func Parse(s string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(s), "v")
	sv, err := semver.NewVersion(trimmed)
	if err != nil {
		return Version{}, phalanxerrors.Wrap(phalanxerrors.CodeInvalidVersion, "parse version "+s, err)
	}
	return Version{raw: s, sv: sv}, nil
}

// MustParse is Parse but panics on error; intended for constants and tests.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders the version in canonical (no leading "v") form.
func (v Version) String() string { return v.sv.String() }

// Original returns the string originally passed to Parse.
func (v Version) Original() string { return v.raw }

// Compare returns -1, 0, or 1 following semver precedence (pre-release <
// release, build metadata ignored).
func (v Version) Compare(other Version) int { return v.sv.Compare(other.sv) }

// LessThan reports whether v sorts before other under semver precedence.
func (v Version) LessThan(other Version) bool { return v.Compare(other) < 0 }

// IsPrerelease reports whether v carries a prerelease component.
func (v Version) IsPrerelease() bool { return v.sv.Prerelease() != "" }

// Major, Minor, Patch expose the numeric components.
func (v Version) Major() uint64 { return v.sv.Major() }
func (v Version) Minor() uint64 { return v.sv.Minor() }
func (v Version) Patch() uint64 { return v.sv.Patch() }

// Core returns the semver.Version this Version wraps, for callers that
// need direct access to Masterminds/semver (e.g. range construction).
func (v Version) Core() *semver.Version { return v.sv }
