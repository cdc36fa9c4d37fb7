package config

import (
	"fmt"
	"strings"
	"time"

	"jordanella.com/phone-agent-go/internal/logging"
)

// Config holds settings for the capture agent
type Config struct {
	// Device
	ADBPath string `yaml:"adbPath"`
	Device  string `yaml:"device"` // serial or host:port; overrides Port
	Port    string `yaml:"port"`

	// Capture
	OutputDir          string `yaml:"outputDir"`
	DefaultFormat      string `yaml:"defaultFormat"`
	ScreencapTimeoutMs int    `yaml:"screencapTimeoutMs"`
	CacheSize          int    `yaml:"cacheSize"`
	CacheTTLMs         int    `yaml:"cacheTTLMs"`
	ThrottleIntervalMs int    `yaml:"throttleIntervalMs"`

	// Gestures
	TapDurationMs       int `yaml:"tapDurationMs"`
	LongPressDurationMs int `yaml:"longPressDurationMs"`

	// Logging
	LogLevel string `yaml:"logLevel"`
	LogTag   string `yaml:"logTag"`
	LogDir   string `yaml:"logDir"` // empty disables the event log file

	// History
	DatabasePath string `yaml:"databasePath"` // empty disables history
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	return &Config{
		Port:                "5555",
		OutputDir:           "screenshots",
		DefaultFormat:       "png",
		ScreencapTimeoutMs:  5000,
		CacheSize:           3,
		CacheTTLMs:          2000,
		ThrottleIntervalMs:  1100,
		TapDurationMs:       0,
		LongPressDurationMs: 1000,
		LogLevel:            "INFO",
		LogTag:              "UIAccessibilityService",
		LogDir:              "logs",
		DatabasePath:        "captures.db",
	}
}

// DeviceAddress returns the device to pass to adb -s
func (c *Config) DeviceAddress() string {
	if c.Device != "" {
		return c.Device
	}
	return fmt.Sprintf("127.0.0.1:%s", c.Port)
}

// Validate reports the first nonsensical setting
func (c *Config) Validate() error {
	if c.Device == "" && c.Port == "" {
		return fmt.Errorf("either device or port must be set")
	}
	if c.OutputDir == "" {
		return fmt.Errorf("outputDir must not be empty")
	}
	switch c.DefaultFormat {
	case "png", "jpg", "jpeg":
	default:
		return fmt.Errorf("defaultFormat %q must be png, jpg or jpeg", c.DefaultFormat)
	}
	if c.ScreencapTimeoutMs <= 0 {
		return fmt.Errorf("screencapTimeoutMs must be positive, got %d", c.ScreencapTimeoutMs)
	}
	if c.CacheSize < 0 || c.CacheTTLMs < 0 || c.ThrottleIntervalMs < 0 {
		return fmt.Errorf("cache and throttle settings must not be negative")
	}
	if c.TapDurationMs < 0 || c.LongPressDurationMs < 0 {
		return fmt.Errorf("gesture durations must not be negative")
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("unknown logLevel %q", c.LogLevel)
	}
	return nil
}

// Level returns the parsed minimum log level
func (c *Config) Level() logging.LogLevel {
	return logging.ParseLevel(c.LogLevel)
}

func (c *Config) ScreencapTimeout() time.Duration {
	return time.Duration(c.ScreencapTimeoutMs) * time.Millisecond
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

func (c *Config) ThrottleInterval() time.Duration {
	return time.Duration(c.ThrottleIntervalMs) * time.Millisecond
}

func (c *Config) TapDuration() time.Duration {
	return time.Duration(c.TapDurationMs) * time.Millisecond
}

func (c *Config) LongPressDuration() time.Duration {
	return time.Duration(c.LongPressDurationMs) * time.Millisecond
}
