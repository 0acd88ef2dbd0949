// Package paths provides XDG-compliant path resolution for ply.
//
// Resolution order:
// 1. PLY_HOME (portable root) → $PLY_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/ply
// 3. Platform defaults → ~/.config/ply, ~/.local/state/ply
package paths

import (
	"os"
	"path/filepath"
)

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if plyHome := os.Getenv("PLY_HOME"); plyHome != "" {
		return filepath.Join(plyHome, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if plyHome := os.Getenv("PLY_HOME"); plyHome != "" {
		return filepath.Join(plyHome, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the ply configuration directory.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "ply")
}

// StateDir returns the ply state directory (pid file, logs).
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, "ply")
}

// PidFilePath returns the default relay pid file location.
func PidFilePath() string {
	return filepath.Join(StateDir(), "relay.pid")
}
