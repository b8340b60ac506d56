package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"remodance/internal/core/model"
)

const settingsFileName = "settings.yaml"

type yamlSettings struct {
	APIEndpoint     string `yaml:"api_endpoint"`
	Username        string `yaml:"username"`
	DeviceName      string `yaml:"device_name"`
	IdleTimeoutMins uint64 `yaml:"idle_timeout_mins"`
	AutoMode        bool   `yaml:"auto_mode"`
	DeveloperMode   bool   `yaml:"developer_mode"`
}

// Store persists settings under the OS config directory, keyed by app name.
type Store struct {
	AppName string
}

// Load reads persisted settings. A missing or unreadable record yields
// the provided defaults; the error is informational only and the
// returned settings are always usable.
func (store Store) Load(defaults model.Settings) (model.Settings, error) {
	return LoadSettings(store.AppName, defaults)
}

// Save writes the settings record.
func (store Store) Save(settings model.Settings) error {
	return SaveSettings(store.AppName, settings)
}

// LoadSettings reads the settings record from YAML. If no record exists
// the defaults are returned.
func LoadSettings(appName string, defaults model.Settings) (model.Settings, error) {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return defaults, err
	}

	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("read settings file: %w", err)
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return defaults, fmt.Errorf("parse settings yaml: %w", err)
	}

	// The record replaces the defaults as a whole; only fields a user
	// could not plausibly want empty fall back.
	settings := model.Settings{
		APIEndpoint:     fileData.APIEndpoint,
		Username:        fileData.Username,
		DeviceName:      fileData.DeviceName,
		IdleTimeoutMins: fileData.IdleTimeoutMins,
		AutoMode:        fileData.AutoMode,
		DeveloperMode:   fileData.DeveloperMode,
	}
	if settings.APIEndpoint == "" {
		settings.APIEndpoint = defaults.APIEndpoint
	}
	if settings.Username == "" {
		settings.Username = defaults.Username
	}
	if settings.DeviceName == "" {
		settings.DeviceName = defaults.DeviceName
	}
	if settings.IdleTimeoutMins == 0 {
		settings.IdleTimeoutMins = defaults.IdleTimeoutMins
	}
	return settings, nil
}

// SaveSettings writes the settings record to YAML.
func SaveSettings(appName string, settings model.Settings) error {
	configPath, err := resolveConfigPath(appName)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	fileData := yamlSettings{
		APIEndpoint:     settings.APIEndpoint,
		Username:        settings.Username,
		DeviceName:      settings.DeviceName,
		IdleTimeoutMins: settings.IdleTimeoutMins,
		AutoMode:        settings.AutoMode,
		DeveloperMode:   settings.DeveloperMode,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal settings yaml: %w", err)
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return fmt.Errorf("write settings file: %w", err)
	}

	return nil
}

func resolveConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}
