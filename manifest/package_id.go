package manifest

import (
	"regexp"
	"strings"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

var packageNameComponent = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// PackageId is a vendor/name pair compared case-insensitively, e.g.
// "monolog/monolog".
type PackageId struct {
	Vendor string
	Name   string
}

// ParsePackageId parses "vendor/name", lower-casing both components.
func ParsePackageId(s string) (PackageId, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return PackageId{}, phalanxerrors.New(phalanxerrors.CodeInvalidManifest, "package id must be vendor/name: "+s)
	}
	vendor, name := strings.ToLower(parts[0]), strings.ToLower(parts[1])
	if !packageNameComponent.MatchString(vendor) || !packageNameComponent.MatchString(name) {
		return PackageId{}, phalanxerrors.New(phalanxerrors.CodeInvalidManifest, "invalid package id: "+s)
	}
	return PackageId{Vendor: vendor, Name: name}, nil
}

// String renders the id back to "vendor/name".
func (id PackageId) String() string { return id.Vendor + "/" + id.Name }

// Equal compares two ids case-insensitively (both are already normalized by
// ParsePackageId, so this is a direct struct comparison).
func (id PackageId) Equal(other PackageId) bool {
	return id.Vendor == other.Vendor && id.Name == other.Name
}

// platformPrefixes are the families of package name matched against ambient
// capabilities instead of the registry.
var platformPrefixes = []string{"ext-", "lib-"}

// platformExact are platform package names with no prefix convention.
var platformExact = map[string]bool{
	"php":               true,
	"composer-plugin-api": true,
	"composer-runtime-api": true,
}

// IsPlatform reports whether id names a platform package: the language
// runtime stub, a runtime-feature stub, or the package manager's own
// plugin/runtime-API self-names.
func (id PackageId) IsPlatform() bool {
	full := id.String()
	if platformExact[full] || platformExact[id.Name] {
		return true
	}
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(id.Name, prefix) && id.Vendor == id.Name {
			return true
		}
	}
	// Platform packages have no vendor component in the ecosystem's
	// convention; ParsePackageId requires one, so platform ids are
	// represented with Vendor == Name by callers that construct them
	// directly via NewPlatformId.
	return false
}

// NewPlatformId constructs the PackageId representation used internally for
// a bare platform package name (e.g. "php", "ext-json").
func NewPlatformId(name string) PackageId {
	return PackageId{Vendor: name, Name: name}
}
