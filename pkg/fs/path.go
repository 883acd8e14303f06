package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ExpandPath expands ~ to user home directory and returns absolute path
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := GetUserPath()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		if path == "~" {
			path = homeDir
		} else {
			path = filepath.Join(homeDir, path[2:])
		}
	}

	return filepath.Abs(path)
}

// GetUserPath returns the user's home directory path across all platforms
func GetUserPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Clean(homeDir), nil
}

// GetUserConfigPath returns the platform-specific user config directory
// - Linux/Unix: ~/.config/<app>
// - macOS: ~/Library/Application Support/<app>
// - Windows: %APPDATA%\<app>
func GetUserConfigPath(appName string) (string, error) {
	homeDir, err := GetUserPath()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appName), nil
		}
		return filepath.Join(homeDir, "AppData", "Roaming", appName), nil
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", appName), nil
	default:
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// Rooted joins elems under root. An absolute elem is re-rooted rather than
// replacing root, so "/hab/pkgs" under "/tmp/x" becomes "/tmp/x/hab/pkgs".
func Rooted(root string, elems ...string) string {
	if root == "" {
		root = string(filepath.Separator)
	}
	parts := append([]string{root}, elems...)
	return filepath.Join(parts...)
}

// Within reports whether path is root itself or lies beneath it.
func Within(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// IsExecutable reports whether path is a regular file with any executable bit set
func IsExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0111 != 0
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
