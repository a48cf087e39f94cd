// Package xdg resolves XDG Base Directory paths for relaybot.
package xdg

import (
	"os"
	"path/filepath"
)

const appName = "relaybot"

// ConfigDir returns the XDG config directory for relaybot.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// ConfigFile returns the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
