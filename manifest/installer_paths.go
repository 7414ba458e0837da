package manifest

import "strings"

// pathMatcherKind distinguishes the three matcher grammars
// extra.installer-paths accepts against a candidate package.
type pathMatcherKind int

const (
	matchType pathMatcherKind = iota
	matchPackage
	matchVendor
)

type pathMatcher struct {
	kind  pathMatcherKind
	value string // type name, "vendor/name", or "vendor" (Vendor kind, "/*" stripped)
}

// parsePathMatcher recognizes "type:X" (package type), "vendor/*" (any
// package under vendor), or "vendor/name" (exact package) matcher
// strings. An unrecognized matcher parses to ok=false and is ignored,
// mirroring a resolver falling through to the default vendor layout
// rather than failing the install.
func parsePathMatcher(s string) (pathMatcher, bool) {
	if t, ok := strings.CutPrefix(s, "type:"); ok {
		return pathMatcher{kind: matchType, value: t}, true
	}
	if vendor, ok := strings.CutSuffix(s, "/*"); ok && vendor != "" {
		return pathMatcher{kind: matchVendor, value: vendor}, true
	}
	if strings.Contains(s, "/") {
		return pathMatcher{kind: matchPackage, value: s}, true
	}
	return pathMatcher{}, false
}

func (pm pathMatcher) matches(id PackageId, pkgType string) bool {
	switch pm.kind {
	case matchType:
		return pm.value == pkgType
	case matchPackage:
		return pm.value == id.String()
	case matchVendor:
		return pm.value == id.Vendor
	default:
		return false
	}
}

// resolveInstallerPathTemplate substitutes {$vendor}, {$name} and
// {$package} in template against id.
func resolveInstallerPathTemplate(template string, id PackageId) string {
	r := strings.NewReplacer(
		"{$vendor}", id.Vendor,
		"{$name}", id.Name,
		"{$package}", id.String(),
	)
	return r.Replace(template)
}

// ResolveInstallerPath checks m's extra.installer-paths map for a
// template whose matcher list matches (id, pkgType) and returns the
// resolved path, trying templates in the map's iteration order and
// returning the first match. ok is false when no template matched, in
// which case the caller falls back to its default vendor/name layout.
func (m *Manifest) ResolveInstallerPath(id PackageId, pkgType string) (path string, ok bool) {
	for template, matchers := range m.InstallerPaths() {
		for _, raw := range matchers {
			pm, parsed := parsePathMatcher(raw)
			if !parsed {
				continue
			}
			if pm.matches(id, pkgType) {
				return resolveInstallerPathTemplate(template, id), true
			}
		}
	}
	return "", false
}
