package utils

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DefaultDataDir returns the platform data directory for offdict:
// $XDG_DATA_HOME/offdict when set, else the per-OS convention.
func DefaultDataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "offdict"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "offdict"), nil
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "offdict"), nil
		}
		return filepath.Join(homeDir, "AppData", "Local", "offdict"), nil
	default:
		return filepath.Join(homeDir, ".local", "share", "offdict"), nil
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// AbsPath returns path made absolute, or "unknown" when it is empty.
func AbsPath(path string) string {
	if path == "" {
		return "unknown"
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
