package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

const sectionName = "Capture"

// Load reads path as YAML when it ends in .yaml or .yml, otherwise as INI
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadFromYAML(path)
	default:
		return LoadFromINI(path)
	}
}

// LoadFromINI loads configuration from the [Capture] section of an INI file
func LoadFromINI(path string) (*Config, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	section := cfg.Section(sectionName)
	defaults := NewDefaultConfig()

	config := &Config{}

	// Device
	config.ADBPath = section.Key("adbPath").MustString(defaults.ADBPath)
	config.Device = section.Key("device").MustString(defaults.Device)
	config.Port = section.Key("port").MustString(defaults.Port)

	// Capture
	config.OutputDir = section.Key("outputDir").MustString(defaults.OutputDir)
	config.DefaultFormat = section.Key("defaultFormat").MustString(defaults.DefaultFormat)
	config.ScreencapTimeoutMs = section.Key("screencapTimeoutMs").MustInt(defaults.ScreencapTimeoutMs)
	config.CacheSize = section.Key("cacheSize").MustInt(defaults.CacheSize)
	config.CacheTTLMs = section.Key("cacheTTLMs").MustInt(defaults.CacheTTLMs)
	config.ThrottleIntervalMs = section.Key("throttleIntervalMs").MustInt(defaults.ThrottleIntervalMs)

	// Gestures
	config.TapDurationMs = section.Key("tapDurationMs").MustInt(defaults.TapDurationMs)
	config.LongPressDurationMs = section.Key("longPressDurationMs").MustInt(defaults.LongPressDurationMs)

	// Logging
	config.LogLevel = section.Key("logLevel").MustString(defaults.LogLevel)
	config.LogTag = section.Key("logTag").MustString(defaults.LogTag)
	config.LogDir = section.Key("logDir").MustString(defaults.LogDir)

	// History
	config.DatabasePath = section.Key("databasePath").MustString(defaults.DatabasePath)

	return config, nil
}

// LoadFromYAML loads configuration from a YAML file. Keys missing from the
// file keep their defaults.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := NewDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section(sectionName)

	// Device
	section.Key("adbPath").SetValue(config.ADBPath)
	section.Key("device").SetValue(config.Device)
	section.Key("port").SetValue(config.Port)

	// Capture
	section.Key("outputDir").SetValue(config.OutputDir)
	section.Key("defaultFormat").SetValue(config.DefaultFormat)
	section.Key("screencapTimeoutMs").SetValue(fmt.Sprintf("%d", config.ScreencapTimeoutMs))
	section.Key("cacheSize").SetValue(fmt.Sprintf("%d", config.CacheSize))
	section.Key("cacheTTLMs").SetValue(fmt.Sprintf("%d", config.CacheTTLMs))
	section.Key("throttleIntervalMs").SetValue(fmt.Sprintf("%d", config.ThrottleIntervalMs))

	// Gestures
	section.Key("tapDurationMs").SetValue(fmt.Sprintf("%d", config.TapDurationMs))
	section.Key("longPressDurationMs").SetValue(fmt.Sprintf("%d", config.LongPressDurationMs))

	// Logging
	section.Key("logLevel").SetValue(config.LogLevel)
	section.Key("logTag").SetValue(config.LogTag)
	section.Key("logDir").SetValue(config.LogDir)

	// History
	section.Key("databasePath").SetValue(config.DatabasePath)

	return cfg.SaveTo(path)
}

// SaveToYAML saves configuration as YAML
func SaveToYAML(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
