package app

import (
	"io"

	"replex/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug forces debug logging regardless of logging.level.
	Debug bool

	// Silent discards all log output.
	Silent bool

	// ConfigPath is the configuration directory. Defaults to ~/.config/replex.
	ConfigPath string

	// Version is reported as X-Plex-Version when the file sets none.
	Version string

	// LogOutput receives log output. Defaults to stderr.
	LogOutput io.Writer

	// Settings is the loaded configuration file. When set, loading is skipped.
	Settings *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, version string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Version:    version,
	}
}
