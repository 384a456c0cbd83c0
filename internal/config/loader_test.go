package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0600))
}

func TestLoadConfig_DefaultOnly(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, DefaultBaseURL, cfg.Auth.BaseURL)
	assert.Equal(t, DefaultProduct, cfg.Auth.Product)
	assert.Equal(t, 2*time.Second, cfg.Auth.PollInterval)
	assert.Equal(t, 150, cfg.Auth.MaxAttempts)
	assert.Equal(t, 3, cfg.Auth.MaxRetries)
	assert.True(t, cfg.Discovery.IncludeHTTPS)
	assert.Equal(t, "http://127.0.0.1:32400", cfg.Discovery.FallbackURL)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, DefaultRateLimit, cfg.HTTP.RateLimit)
	assert.Equal(t, DefaultRateBurst, cfg.HTTP.RateBurst)
}

func TestLoadConfig_PartialOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
auth:
  device_name: living-room
  poll_interval: 500ms
  max_retries: 0
discovery:
  force_local_http: true
logging:
  level: debug
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "living-room", cfg.Auth.DeviceName)
	assert.Equal(t, 500*time.Millisecond, cfg.Auth.PollInterval)
	assert.Equal(t, 0, cfg.Auth.MaxRetries)
	assert.True(t, cfg.Discovery.ForceLocalHTTP)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultBaseURL, cfg.Auth.BaseURL)
	assert.Equal(t, 150, cfg.Auth.MaxAttempts)
	assert.True(t, cfg.Discovery.IncludeHTTPS)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "auth: [unterminated")

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var cfgErr ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "parse", cfgErr.ErrorType)
	assert.Equal(t, configFileName, cfgErr.FileName)
	assert.Contains(t, cfgErr.DetailedError(), "Suggestions:")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `
auth:
  base_url: "not a url"
  max_attempts: 0
http:
  timeout: 0s
logging:
  level: loud
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)

	var cfgErr ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "validation", cfgErr.ErrorType)
	assert.Contains(t, cfgErr.Details, "auth.base_url")
	assert.Contains(t, cfgErr.Details, "auth.max_attempts")
	assert.Contains(t, cfgErr.Details, "http.timeout")
	assert.Contains(t, cfgErr.Details, "logging.level")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	cfg := GetDefaultConfig()
	cfg.Auth.DeviceName = "bedroom"
	cfg.Auth.PollInterval = 3 * time.Second
	cfg.Storage.DisableEncryption = true
	require.NoError(t, SaveConfig(dir, cfg))

	loaded, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestGetDefaultConfigPathOrPanic(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := GetDefaultConfigPathOrPanic()
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, "replex", filepath.Base(path))
}
