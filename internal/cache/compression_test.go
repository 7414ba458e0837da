package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressForDiskRoundTrips(t *testing.T) {
	data := bytes.Repeat([]byte("composer metadata payload "), 20)

	out, compressed, err := compressForDisk(ClassMetadata, data)
	require.NoError(t, err)
	assert.True(t, compressed)
	assert.True(t, bytes.HasPrefix(out, compressedMagic))

	back, err := decompressFromDisk(out)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestCompressForDiskSkipsBelowThreshold(t *testing.T) {
	data := []byte("short")
	out, compressed, err := compressForDisk(ClassMetadata, data)
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, data, out)
}

func TestCompressForDiskSkipsIneligibleClass(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 500)
	out, compressed, err := compressForDisk(ClassVcsClone, data)
	require.NoError(t, err)
	assert.False(t, compressed)
	assert.Equal(t, data, out)
}

func TestDecompressFromDiskPassesThroughUncompressed(t *testing.T) {
	data := []byte("plain bytes, no magic prefix")
	back, err := decompressFromDisk(data)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestDecompressFromDiskRejectsCorruptFrame(t *testing.T) {
	corrupt := append(append([]byte{}, compressedMagic...), []byte("not a zstd frame")...)
	_, err := decompressFromDisk(corrupt)
	assert.Error(t, err)
}
