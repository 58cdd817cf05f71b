package config

import (
	"os"
	"path/filepath"
)

const appDir = "drumrate"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	return xdgHome("XDG_CONFIG_HOME", ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	return xdgHome("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgHome(env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, fallback)
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "config.toml")
}

// DefaultDuplicatesPath returns the default duplicate-group table path.
func DefaultDuplicatesPath() string {
	return filepath.Join(XDGConfigHome(), appDir, "duplicates.yaml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "drumrate.db")
}

// DefaultChartDBPath returns where the downloaded chart database is cached.
func DefaultChartDBPath() string {
	return filepath.Join(XDGDataHome(), appDir, "charts.json")
}
