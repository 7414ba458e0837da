package config

import (
	"os"
	"path/filepath"
)

func defaultHome() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return "."
}

func defaultCacheRoot() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "phalanx")
	}
	return filepath.Join(defaultHome(), ".cache", "phalanx")
}
