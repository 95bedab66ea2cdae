// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// AppName names the per-user configuration and data directories.
	AppName = "silicon-alloy"
	// darwinDataName is the data directory name under ~/Library/Application Support.
	darwinDataName = "SiliconAlloy"
	// SocketName is the daemon socket file name.
	SocketName = "daemon.sock"
)

// configDirOverride redirects ConfigDir in tests; os.UserHomeDir ignores
// HOME on some platforms.
var configDirOverride string

// SetConfigDirOverride makes ConfigDir return dir. An empty dir restores the
// platform default.
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// ConfigDir returns the directory holding config.cue: ~/Library/Application
// Support/silicon-alloy on macOS, $XDG_CONFIG_HOME/silicon-alloy (default
// ~/.config/silicon-alloy) elsewhere.
//
//nolint:revive // ConfigDir reads better than Dir at call sites
func ConfigDir() (string, error) {
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", AppName), nil
	}

	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, AppName), nil
}

// DefaultDataDir returns ~/Library/Application Support/SiliconAlloy on macOS
// and $XDG_DATA_HOME/silicon-alloy (default ~/.local/share/silicon-alloy)
// elsewhere.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", darwinDataName), nil
	}

	if base := os.Getenv("XDG_DATA_HOME"); base != "" {
		return filepath.Join(base, AppName), nil
	}
	return filepath.Join(home, ".local", "share", AppName), nil
}

// DefaultSocketPath returns $XDG_RUNTIME_DIR/silicon-alloy/daemon.sock, or
// daemon.sock inside dataDir when no runtime dir is set.
func DefaultSocketPath(dataDir string) string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, AppName, SocketName)
	}
	return filepath.Join(dataDir, SocketName)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
