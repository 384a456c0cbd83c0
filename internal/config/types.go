package config

import "time"

// Config is the top-level configuration structure for replex.
type Config struct {
	Auth      AuthConfig      `yaml:"auth"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Storage   StorageConfig   `yaml:"storage"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AuthConfig describes the device to plex.tv and bounds the PIN flow.
type AuthConfig struct {
	BaseURL         string        `yaml:"base_url"`                   // plex.tv endpoint (default: https://plex.tv)
	Product         string        `yaml:"product"`                    // X-Plex-Product (default: RePlex)
	Version         string        `yaml:"version,omitempty"`          // X-Plex-Version (default: build version)
	Platform        string        `yaml:"platform,omitempty"`         // X-Plex-Platform (default: runtime OS)
	PlatformVersion string        `yaml:"platform_version,omitempty"` // X-Plex-Platform-Version
	Device          string        `yaml:"device,omitempty"`           // X-Plex-Device
	DeviceName      string        `yaml:"device_name,omitempty"`      // X-Plex-Device-Name (default: hostname)
	PollInterval    time.Duration `yaml:"poll_interval"`              // Time between PIN checks (default: 2s)
	MaxAttempts     int           `yaml:"max_attempts"`               // PIN checks before a PIN times out (default: 150)
	MaxRetries      int           `yaml:"max_retries"`                // Fresh PINs after a timeout (default: 3)
	StrongPin       bool          `yaml:"strong_pin,omitempty"`       // Request a long PIN instead of a 4-character code
}

// DiscoveryConfig controls server selection.
type DiscoveryConfig struct {
	IncludeHTTPS   bool   `yaml:"include_https"`              // Ask for HTTPS connection candidates (default: true)
	IncludeRelay   bool   `yaml:"include_relay,omitempty"`    // Ask for relay connection candidates
	FallbackURL    string `yaml:"fallback_url"`               // Last-resort server address (default: http://127.0.0.1:32400)
	ForceLocalHTTP bool   `yaml:"force_local_http,omitempty"` // Always use http for local connections
}

// StorageConfig controls where state is kept.
type StorageConfig struct {
	Dir               string `yaml:"dir,omitempty"`                // State directory (default: the config directory)
	DisableEncryption bool   `yaml:"disable_encryption,omitempty"` // Store credentials in plaintext
}

// HTTPConfig tunes outbound HTTP.
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`    // Per-request timeout (default: 30s)
	RateLimit float64       `yaml:"rate_limit"` // plex.tv requests per second, 0 disables (default: 5)
	RateBurst int           `yaml:"rate_burst"` // Requests allowed back to back (default: 5)
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn or error (default: info)
}
