// This file contains tests for malicious archive generators.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMaliciousArchive_PathTraversal checks that the path traversal archive is written.
func TestMaliciousArchive_PathTraversal(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "path-traversal.tar.gz")

	err = generator.GeneratePathTraversalArchive(outputPath)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_ZipBomb checks that the zip bomb archive is written.
func TestMaliciousArchive_ZipBomb(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "zip-bomb.zip")

	err = generator.GenerateZipBomb(outputPath)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_FileCountBomb checks that a 1000-file archive is written.
func TestMaliciousArchive_FileCountBomb(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "file-count-bomb.tar.gz")

	err = generator.GenerateFileCountBomb(outputPath, 1000)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_SymlinkBomb checks that the symlink archive is written.
func TestMaliciousArchive_SymlinkBomb(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "symlink-bomb.tar.gz")

	err = generator.GenerateSymlinkBomb(outputPath)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_Malformed checks that the malformed archive is written.
func TestMaliciousArchive_Malformed(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "malformed.tar.gz")

	err = generator.GenerateMalformedArchive(outputPath)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_Nested checks that a depth-10 nested archive is written.
func TestMaliciousArchive_Nested(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "nested.tar.gz")

	err = generator.GenerateNestedArchive(outputPath, 10)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_LargeFile checks that the archive with an oversized size header is written.
func TestMaliciousArchive_LargeFile(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "large-file.tar.gz")

	// Claim 1GB file
	err = generator.GenerateLargeFileArchive(outputPath, 1024*1024*1024)
	require.NoError(t, err)

	// Verify file was created
	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

// TestMaliciousArchive_ComposerDistPathTraversal checks that a Composer-dist-shaped
// zip carrying a path traversal entry outside its top-level directory is written.
// The archive is not extracted here.
func TestMaliciousArchive_ComposerDistPathTraversal(t *testing.T) {
	generator, err := NewMaliciousArchiveGenerator()
	require.NoError(t, err)
	defer generator.Close()

	outputPath := filepath.Join(generator.tempDir, "dist-traversal.zip")

	err = generator.GenerateMalformedComposerDistZip(outputPath, "vendor", "pkg", "abc123")
	require.NoError(t, err)

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
