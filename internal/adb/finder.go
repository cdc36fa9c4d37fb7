package adb

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// FindADB attempts to locate the ADB executable
func FindADB(preferredPath string) (string, error) {
	// Try preferred path first: either the binary itself or a folder holding it
	if preferredPath != "" {
		candidates := []string{
			preferredPath,
			filepath.Join(preferredPath, adbBinary()),
			filepath.Join(preferredPath, "platform-tools", adbBinary()),
		}
		for _, candidate := range candidates {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
	}

	commonPaths := []string{
		`C:\Android\sdk\platform-tools\adb.exe`,
		`${LOCALAPPDATA}\Android\Sdk\platform-tools\adb.exe`,
		"adb.exe",
	}
	if runtime.GOOS != "windows" {
		commonPaths = []string{
			"/usr/bin/adb",
			"/usr/local/bin/adb",
			"${HOME}/Android/Sdk/platform-tools/adb",
			"${ANDROID_HOME}/platform-tools/adb",
			"adb",
		}
	}

	for _, path := range commonPaths {
		expandedPath := os.ExpandEnv(path)

		if _, err := os.Stat(expandedPath); err == nil {
			return expandedPath, nil
		}

		// Bare names are looked up on PATH
		if !strings.ContainsAny(path, `/\`) {
			if adbPath, err := exec.LookPath(path); err == nil {
				return adbPath, nil
			}
		}
	}

	return "", fmt.Errorf("adb not found, please specify adbPath in config")
}

func adbBinary() string {
	if runtime.GOOS == "windows" {
		return "adb.exe"
	}
	return "adb"
}

// ParseDevices extracts ready device serials from `adb devices` output
func ParseDevices(output string) []string {
	var devices []string
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == "device" {
			devices = append(devices, fields[0])
		}
	}
	return devices
}

// ListDevices returns the serials of attached, ready devices
func ListDevices(ctx context.Context, adbPath string, run CommandRunner) ([]string, error) {
	if run == nil {
		run = execRunner
	}
	output, err := run(ctx, adbPath, "devices")
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return ParseDevices(string(output)), nil
}
