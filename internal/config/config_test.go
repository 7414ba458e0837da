package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.CacheRoot)
	assert.NotEmpty(t, cfg.HomeDir)
	assert.Equal(t, "en_US.UTF-8", cfg.Locale)
	assert.False(t, cfg.NoColor)
	assert.Equal(t, 0, cfg.ConcurrencyCap)
}

func TestLoadOverlaysEnvironment(t *testing.T) {
	t.Setenv("PHALANX_NO_COLOR", "true")
	t.Setenv("PHALANX_CONCURRENCY", "8")
	t.Setenv("PHALANX_LOCALE", "fr_FR.UTF-8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.NoColor)
	assert.Equal(t, 8, cfg.ConcurrencyCap)
	assert.Equal(t, "fr_FR.UTF-8", cfg.Locale)
}

func TestLoadOverlaysCacheRoot(t *testing.T) {
	t.Setenv("PHALANX_CACHE_ROOT", "/tmp/custom-phalanx-cache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom-phalanx-cache", cfg.CacheRoot)
}

func TestDefaultCacheRootUsesXDGWhenSet(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	assert.Equal(t, filepath.Join("/tmp/xdg-cache", "phalanx"), defaultCacheRoot())
}

func TestDefaultCacheRootFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	assert.Equal(t, filepath.Join(defaultHome(), ".cache", "phalanx"), defaultCacheRoot())
}
