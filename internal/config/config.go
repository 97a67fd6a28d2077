// Package config resolves the on-disk locations used by vgdraft.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// GetDataDir resolves the base directory for all vgdraft storage. VGDRAFT_DIR
// wins when set, then the XDG data home, then a home-relative fallback.
func GetDataDir() string {
	if explicit := os.Getenv("VGDRAFT_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()

	dataHome := xdg.DataHome
	if dataHome == "" {
		home := xdg.Home
		if home == "" {
			var err error
			home, err = os.UserHomeDir()
			if err != nil {
				return filepath.Join(os.TempDir(), "vgdraft")
			}
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "vgdraft")
}

// GetDBPath returns the absolute path to the SQLite database file.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "vgdraft.db")
}

// GetExportDir returns the directory where CSV exports are written by default.
func GetExportDir() string {
	return filepath.Join(GetDataDir(), "exports")
}
