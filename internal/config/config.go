// Package config holds process-wide runtime configuration.
package config

import "github.com/spf13/viper"

const (
	// KeyConcurrencyLimit is the viper key for the download concurrency bound.
	KeyConcurrencyLimit = "concurrency_limit"

	// DefaultConcurrencyLimit bounds simultaneous downloads when not configured.
	DefaultConcurrencyLimit = 5
)

// Runtime is the configuration for one resolution run, read once at
// startup and passed down explicitly so the pipeline stays testable
// with injected values.
type Runtime struct {
	ConcurrencyLimit int
}

// SetDefaults registers configuration defaults with viper.
func SetDefaults() {
	viper.SetDefault(KeyConcurrencyLimit, DefaultConcurrencyLimit)
}

// Load reads the runtime configuration from viper.
func Load() Runtime {
	limit := viper.GetInt(KeyConcurrencyLimit)
	if limit <= 0 {
		limit = DefaultConcurrencyLimit
	}
	return Runtime{ConcurrencyLimit: limit}
}
