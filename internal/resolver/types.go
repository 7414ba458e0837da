package resolver

import (
	"context"
	"time"

	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"
)

// RegistryAdapter is the subset of internal/registry.Client the solver
// depends on, kept as an interface so tests can fake it without spinning
// up an HTTP server.
type RegistryAdapter interface {
	Resolve(ctx context.Context, id manifest.PackageId, constraint version.Constraint) ([]manifest.CandidatePackage, error)
}

// PlatformCapabilities is the ambient capability table platform packages
// (the runtime stub, runtime-feature stubs, the tool's own plugin/runtime
// API) are checked against instead of being fetched.
type PlatformCapabilities struct {
	Versions map[string]version.Version
}

// Satisfies reports whether capability name is present and its version
// matches constraint.
func (p PlatformCapabilities) Satisfies(name string, constraint version.Constraint) bool {
	v, ok := p.Versions[name]
	if !ok {
		return false
	}
	return constraint.Matches(v)
}

// Options bounds the search: a wall-clock timeout, which yields
// CodeResolveCancelled with the goal stack attached when exceeded, and a
// per-goal candidate cap, which keeps only the first MaxCandidatesPerGoal
// candidates of each registry answer and raises no error.
type Options struct {
	Timeout              time.Duration
	MaxCandidatesPerGoal int
	Platform             PlatformCapabilities
}

// DefaultOptions returns conservative bounds suitable for an interactive
// resolve.
func DefaultOptions() Options {
	return Options{
		Timeout:              30 * time.Second,
		MaxCandidatesPerGoal: 500,
	}
}

// goal is one open requirement: a package id, the accumulated constraint
// from every requirer discovered so far, whether it's on the dev tier, and
// the chain of requiring package keys for diagnostics.
type goal struct {
	id            manifest.PackageId
	constraint    version.Constraint
	dev           bool
	requiringPath []string
}

// decision records one goal's tentative selection, the untried
// alternatives remaining, and a snapshot of the solver state captured
// immediately before the selection was applied, so backtracking can
// restore it wholesale and advance to the next alternative instead of
// restarting the search or threading precise undo logic through every
// mutation site.
type decision struct {
	goal       goal
	candidates []manifest.CandidatePackage
	triedIndex int
	before     searchState
}

// Resolution is the solved dependency set: production packages and dev
// packages, each in reverse-topological (leaves-first) order.
type Resolution struct {
	Packages    []manifest.CandidatePackage
	PackagesDev []manifest.CandidatePackage
}
