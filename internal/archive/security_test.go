package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phalanx-pm/phalanx/internal/fsx"
	"github.com/phalanx-pm/phalanx/internal/testutil"

	phalanxerrors "github.com/phalanx-pm/phalanx/errors"
)

func TestExtractRejectsPathTraversalArchive(t *testing.T) {
	gen, err := testutil.NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer gen.Close()

	archivePath := filepath.Join(t.TempDir(), "path-traversal.tar.gz")
	require.NoError(t, gen.GeneratePathTraversalArchive(archivePath))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	extractor := New(fsx.NewMemory())
	_, err = extractor.Extract(context.Background(), KindTarGz, f, "dest", DefaultExtractOptions())
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodePathTraversal, phalanxerrors.Code(err))
}

func TestExtractRejectsSymlinkEscapeArchive(t *testing.T) {
	gen, err := testutil.NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer gen.Close()

	archivePath := filepath.Join(t.TempDir(), "symlink-bomb.tar.gz")
	require.NoError(t, gen.GenerateSymlinkBomb(archivePath))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	extractor := New(fsx.NewMemory())
	_, err = extractor.Extract(context.Background(), KindTarGz, f, "dest", DefaultExtractOptions())
	require.Error(t, err)
	assert.Equal(t, phalanxerrors.CodePathTraversal, phalanxerrors.Code(err))
}

func TestExtractEnforcesFileCountLimitAgainstFileCountBomb(t *testing.T) {
	gen, err := testutil.NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer gen.Close()

	archivePath := filepath.Join(t.TempDir(), "file-count-bomb.tar.gz")
	require.NoError(t, gen.GenerateFileCountBomb(archivePath, 50))

	f, err := os.Open(archivePath)
	require.NoError(t, err)
	defer f.Close()

	opts := DefaultExtractOptions()
	opts.MaxFiles = 10

	extractor := New(fsx.NewMemory())
	_, err = extractor.Extract(context.Background(), KindTarGz, f, "dest", opts)
	require.Error(t, err)
}
