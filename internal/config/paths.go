package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "vibeusage"

// ConfigDir returns the vibeusage config directory, honoring
// VIBEUSAGE_CONFIG_DIR over the platform default.
func ConfigDir() string {
	if v := os.Getenv("VIBEUSAGE_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// CacheDir returns the vibeusage cache directory, honoring
// VIBEUSAGE_CACHE_DIR over the platform default.
func CacheDir() string {
	if v := os.Getenv("VIBEUSAGE_CACHE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.CacheHome, appName)
}

// StateDir returns the vibeusage state directory, honoring
// VIBEUSAGE_STATE_DIR over the platform default. Gate state lives here:
// it is operational history, not a cache that can be blown away freely.
func StateDir() string {
	if v := os.Getenv("VIBEUSAGE_STATE_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.StateHome, appName)
}

func CredentialsDir() string  { return filepath.Join(ConfigDir(), "credentials") }
func SnapshotsDir() string    { return filepath.Join(CacheDir(), "snapshots") }
func OrgIDsDir() string       { return filepath.Join(CacheDir(), "org-ids") }
func GatesDir() string        { return filepath.Join(StateDir(), "gates") }
func MultipliersFile() string { return filepath.Join(CacheDir(), "multipliers.json") }
func ConfigFile() string      { return filepath.Join(ConfigDir(), "config.toml") }
