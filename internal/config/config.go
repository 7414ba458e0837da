// Package config loads the handful of environment-driven settings this
// core observes, the way developer-mesh's pkg/config uses
// github.com/spf13/viper: struct defaults first, environment variables
// override, no CLI flag binding (the command-line surface is out of
// scope for this module).
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds every environment-observed setting.
type Config struct {
	CacheRoot      string `mapstructure:"cache_root"`
	HomeDir        string `mapstructure:"home"`
	NoColor        bool   `mapstructure:"no_color"`
	Locale         string `mapstructure:"locale"`
	ConcurrencyCap int    `mapstructure:"concurrency"`
}

// EnvPrefix is the prefix every observed environment variable carries,
// e.g. PHALANX_CACHE_ROOT, PHALANX_NO_COLOR.
const EnvPrefix = "PHALANX"

// Load reads defaults, then overlays environment variables under
// EnvPrefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("cache_root", defaultCacheRoot())
	v.SetDefault("home", defaultHome())
	v.SetDefault("no_color", false)
	v.SetDefault("locale", "en_US.UTF-8")
	v.SetDefault("concurrency", 0) // 0 means "compute from runtime.NumCPU"

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
