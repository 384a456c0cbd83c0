package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"replex/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/replex"
	configFileName = "config.yaml"
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the config.yaml in configPath.
// Values present in the file override the defaults; a missing file yields
// the defaults. The result is validated.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig()

	// #nosec G304 -- configPath is chosen by the user running the CLI
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, NewConfigurationError(configFilePath, "io", "failed to read configuration", err.Error())
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, NewConfigurationError(configFilePath, "parse", "malformed YAML", err.Error(),
			"check the indentation and that durations are written like 2s or 500ms")
	}

	if err := config.Validate(); err != nil {
		var verrs ValidationErrors
		if errors.As(err, &verrs) {
			return Config{}, NewConfigurationError(configFilePath, "validation", "invalid configuration", verrs.Error())
		}
		return Config{}, err
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}

// SaveConfig writes config to config.yaml in configPath.
func SaveConfig(configPath string, config Config) error {
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	configFilePath := filepath.Join(configPath, configFileName)
	if err := os.WriteFile(configFilePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFilePath, err)
	}
	return nil
}
