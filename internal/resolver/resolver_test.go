package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/manifest"
	"github.com/phalanx-pm/phalanx/version"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

// fakeRegistry is an in-memory RegistryAdapter keyed by package id, letting
// resolver tests run without an HTTP server.
type fakeRegistry struct {
	byID map[string][]manifest.CandidatePackage
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{byID: make(map[string][]manifest.CandidatePackage)}
}

// add registers a candidate sorted newest-first, matching the ordering
// internal/registry.Client.Resolve already guarantees its callers.
func (f *fakeRegistry) add(idStr, ver string, require map[string]string) {
	id, err := manifest.ParsePackageId(idStr)
	if err != nil {
		panic(err)
	}
	v, err := version.Parse(ver)
	if err != nil {
		panic(err)
	}
	cand := manifest.CandidatePackage{ID: id, Version: v, Require: require}
	candidates := append([]manifest.CandidatePackage{cand}, f.byID[idStr]...)
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Version.Compare(candidates[j-1].Version) > 0; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	f.byID[idStr] = candidates
}

func (f *fakeRegistry) withConflict(idStr, ver string, conflict map[string]string) {
	id, _ := manifest.ParsePackageId(idStr)
	v, _ := version.Parse(ver)
	cand := manifest.CandidatePackage{ID: id, Version: v, Conflict: conflict}
	candidates := append([]manifest.CandidatePackage{cand}, f.byID[idStr]...)
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Version.Compare(candidates[j-1].Version) > 0; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	f.byID[idStr] = candidates
}

func (f *fakeRegistry) Resolve(_ context.Context, id manifest.PackageId, constraint version.Constraint) ([]manifest.CandidatePackage, error) {
	all := f.byID[id.String()]
	out := make([]manifest.CandidatePackage, 0, len(all))
	for _, c := range all {
		if constraint.Matches(c.Version) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil, phalanxerrors.New(phalanxerrors.CodePackageNotFound, "no match for "+id.String())
	}
	return out, nil
}

func mustConstraintMap(t *testing.T, pairs map[string]string) map[string]string {
	t.Helper()
	return pairs
}

func TestResolveSimpleChain(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("vendor/leaf", "1.2.0", nil)
	reg.add("vendor/mid", "2.0.0", mustConstraintMap(t, map[string]string{"vendor/leaf": "^1.0"}))

	m := &manifest.Manifest{
		Require: map[string]string{"vendor/mid": "^2.0"},
	}

	s := New(reg, DefaultOptions())
	res, err := s.Resolve(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, res.Packages, 2)
	assert.Equal(t, "vendor/leaf", res.Packages[0].ID.String(), "leaf must be emitted before its dependent")
	assert.Equal(t, "vendor/mid", res.Packages[1].ID.String())
}

func TestResolveDevRequireSeparatedFromProduction(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("vendor/app", "1.0.0", nil)
	reg.add("vendor/test-tool", "3.0.0", nil)

	m := &manifest.Manifest{
		Require:    map[string]string{"vendor/app": "^1.0"},
		RequireDev: map[string]string{"vendor/test-tool": "^3.0"},
	}

	s := New(reg, DefaultOptions())
	res, err := s.Resolve(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, res.Packages, 1)
	assert.Equal(t, "vendor/app", res.Packages[0].ID.String())
	require.Len(t, res.PackagesDev, 1)
	assert.Equal(t, "vendor/test-tool", res.PackagesDev[0].ID.String())
}

func TestResolveBacktracksOnConflict(t *testing.T) {
	reg := newFakeRegistry()
	// vendor/a 2.0.0 conflicts with vendor/shared 1.x; 1.0.0 does not.
	// vendor/b requires vendor/shared ^1.0, forcing the solver to
	// backtrack off vendor/a's newest candidate.
	reg.add("vendor/a", "1.0.0", nil)
	reg.withConflict("vendor/a", "2.0.0", map[string]string{"vendor/shared": "^1.0"})
	reg.add("vendor/b", "1.0.0", mustConstraintMap(t, map[string]string{"vendor/shared": "^1.0"}))
	reg.add("vendor/shared", "1.0.0", nil)

	m := &manifest.Manifest{
		Require: map[string]string{"vendor/a": "^1.0 || ^2.0", "vendor/b": "^1.0"},
	}

	s := New(reg, DefaultOptions())
	res, err := s.Resolve(context.Background(), m)
	require.NoError(t, err)

	ids := make([]string, 0, len(res.Packages))
	for _, p := range res.Packages {
		ids = append(ids, p.ID.String())
	}
	assert.Contains(t, ids, "vendor/shared")
	assert.Contains(t, ids, "vendor/b")
	assert.Contains(t, ids, "vendor/a")
}

func TestResolveFailsOnMissingPackage(t *testing.T) {
	reg := newFakeRegistry()
	m := &manifest.Manifest{Require: map[string]string{"vendor/ghost": "^1.0"}}

	s := New(reg, DefaultOptions())
	_, err := s.Resolve(context.Background(), m)
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodePackageNotFound, phalanxerrors.Code(err))
}

func TestResolvePlatformCapabilityChecked(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("vendor/app", "1.0.0", mustConstraintMap(t, map[string]string{"php": "^8.1"}))

	m := &manifest.Manifest{Require: map[string]string{"vendor/app": "^1.0"}}

	phpVersion, err := version.Parse("8.2.0")
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Platform = PlatformCapabilities{Versions: map[string]version.Version{"php": phpVersion}}

	s := New(reg, opts)
	res, err := s.Resolve(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, res.Packages, 1)
}

func TestResolvePlatformCapabilityMissingFails(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("vendor/app", "1.0.0", mustConstraintMap(t, map[string]string{"ext-redis": "*"}))

	m := &manifest.Manifest{Require: map[string]string{"vendor/app": "^1.0"}}

	s := New(reg, DefaultOptions())
	_, err := s.Resolve(context.Background(), m)
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodePackageNotFound, phalanxerrors.Code(err))
}

func TestResolveRespectsTimeout(t *testing.T) {
	reg := newFakeRegistry()
	reg.add("vendor/app", "1.0.0", nil)
	m := &manifest.Manifest{Require: map[string]string{"vendor/app": "^1.0"}}

	opts := DefaultOptions()
	opts.Timeout = time.Nanosecond

	s := New(reg, opts)
	_, err := s.Resolve(context.Background(), m)
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodeResolveCancelled, phalanxerrors.Code(err))
}
