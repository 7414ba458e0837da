package fsx

import (
	"io/fs"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFSWriteReadRoundTrip(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.MkdirAll("a/b", 0o755))
	require.NoError(t, mem.WriteFile("a/b/c.txt", []byte("hello"), 0o644))

	data, err := mem.ReadFile("a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	exists, err := mem.Exists("a/b/c.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = mem.Exists("a/b/missing.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWriteFileAtomicReplacesTarget(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, WriteFileAtomic(mem, "lock.json", []byte("v1"), 0o644))
	require.NoError(t, WriteFileAtomic(mem, "lock.json", []byte("v2"), 0o644))

	data, err := mem.ReadFile("lock.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	entries, err := mem.ReadDir(".")
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-", "temp file must not survive a successful commit")
	}
}

func TestWalkVisitsLexicalOrder(t *testing.T) {
	mem := NewMemory()
	require.NoError(t, mem.WriteFile("b.txt", []byte("b"), 0o644))
	require.NoError(t, mem.WriteFile("a.txt", []byte("a"), 0o644))

	var visited []string
	err := mem.Walk(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		visited = append(visited, p)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, visited, "a.txt")
	assert.Contains(t, visited, "b.txt")
	assert.Less(t, slices.Index(visited, "a.txt"), slices.Index(visited, "b.txt"), "entries must be visited in lexical order")
}
