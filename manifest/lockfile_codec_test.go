package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/version"
)

func samplePackage(name, ver string) CandidatePackage {
	id, err := ParsePackageId(name)
	if err != nil {
		panic(err)
	}
	return CandidatePackage{ID: id, Version: version.MustParse(ver)}
}

func TestMarshalCanonicalSortsPackagesByName(t *testing.T) {
	lock := &Lockfile{
		ContentHash: "deadbeef",
		Packages: []CandidatePackage{
			samplePackage("vendor/zeta", "1.0.0"),
			samplePackage("vendor/alpha", "2.0.0"),
		},
	}
	encoded, err := MarshalCanonical(lock)
	require.NoError(t, err)

	alphaIdx := strings.Index(string(encoded), "vendor/alpha")
	zetaIdx := strings.Index(string(encoded), "vendor/zeta")
	assert.Less(t, alphaIdx, zetaIdx)
	assert.NotContains(t, string(encoded), "\r")
}

func TestMarshalCanonicalIsDeterministic(t *testing.T) {
	lock := &Lockfile{
		ContentHash: "deadbeef",
		Packages: []CandidatePackage{
			samplePackage("vendor/a", "1.0.0"),
			samplePackage("vendor/b", "1.0.0"),
		},
	}
	first, err := MarshalCanonical(lock)
	require.NoError(t, err)
	second, err := MarshalCanonical(lock)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeContentHashIgnoresUnrelatedFields(t *testing.T) {
	m1 := &Manifest{Require: map[string]string{"vendor/a": "^1.0"}, MinimumStability: "stable"}
	m2 := &Manifest{Require: map[string]string{"vendor/a": "^1.0"}, MinimumStability: "stable", Type: "library"}

	h1, err := ComputeContentHash(m1)
	require.NoError(t, err)
	h2, err := ComputeContentHash(m2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2, "content-hash must not change when a non-dependency field changes")

	m3 := &Manifest{Require: map[string]string{"vendor/a": "^2.0"}, MinimumStability: "stable"}
	h3, err := ComputeContentHash(m3)
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestDiffLockfilesClassifiesChanges(t *testing.T) {
	oldLock := &Lockfile{Packages: []CandidatePackage{
		samplePackage("vendor/stays", "1.0.0"),
		samplePackage("vendor/removed", "1.0.0"),
		samplePackage("vendor/upgraded", "1.0.0"),
	}}
	newLock := &Lockfile{Packages: []CandidatePackage{
		samplePackage("vendor/stays", "1.0.0"),
		samplePackage("vendor/added", "1.0.0"),
		samplePackage("vendor/upgraded", "2.0.0"),
	}}

	diff := DiffLockfiles(oldLock, newLock)
	assert.Equal(t, []string{"vendor/added"}, diff.Added)
	assert.Equal(t, []string{"vendor/removed"}, diff.Removed)
	require.Len(t, diff.Upgraded, 1)
	assert.Equal(t, "vendor/upgraded", diff.Upgraded[0].Package)
}

func TestAtomicWriterRollsBackOnFailure(t *testing.T) {
	mem := fsx.NewMemory()
	w := NewAtomicWriter(mem)
	require.NoError(t, w.WriteFile("composer.lock", []byte("{}"), 0o644))

	exists, err := mem.Exists("composer.lock")
	require.NoError(t, err)
	assert.True(t, exists)

	w.Rollback()
	exists, err = mem.Exists("composer.lock")
	require.NoError(t, err)
	assert.False(t, exists)
}
