package config

import (
	"os"
	"runtime"
	"time"
)

const (
	// DefaultBaseURL is the plex.tv endpoint.
	DefaultBaseURL = "https://plex.tv"

	// DefaultProduct is the product name sent to plex.tv.
	DefaultProduct = "RePlex"

	// DefaultDevice is the device type sent to plex.tv.
	DefaultDevice = "CLI"

	// DefaultFallbackURL is used when no server can be discovered.
	DefaultFallbackURL = "http://127.0.0.1:32400"

	DefaultPollInterval = 2 * time.Second
	DefaultMaxAttempts  = 150
	DefaultMaxRetries   = 3
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultRateLimit    = 5.0
	DefaultRateBurst    = 5
	DefaultLogLevel     = "info"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Auth: AuthConfig{
			BaseURL:      DefaultBaseURL,
			Product:      DefaultProduct,
			Platform:     runtime.GOOS,
			Device:       DefaultDevice,
			DeviceName:   defaultDeviceName(),
			PollInterval: DefaultPollInterval,
			MaxAttempts:  DefaultMaxAttempts,
			MaxRetries:   DefaultMaxRetries,
		},
		Discovery: DiscoveryConfig{
			IncludeHTTPS: true,
			FallbackURL:  DefaultFallbackURL,
		},
		HTTP: HTTPConfig{
			Timeout:   DefaultHTTPTimeout,
			RateLimit: DefaultRateLimit,
			RateBurst: DefaultRateBurst,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

func defaultDeviceName() string {
	if name, err := os.Hostname(); err == nil && name != "" {
		return name
	}
	return DefaultProduct
}
