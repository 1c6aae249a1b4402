// Package paths resolves the configuration directory and the store file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the platform configuration directory.
const appName = "wmslite"

// CWD-relative store location used when nothing overrides it.
const (
	DefaultDataDirName = ".wms"
	DefaultDBFileName  = "wms.db"
)

// ConfigFileName is the config file looked up in the configuration directory.
const ConfigFileName = "config.yaml"

// Environment variable names for location overrides.
const (
	EnvConfigDir = "WMS_CONFIG_DIR"
	EnvDBPath    = "WMS_DB_PATH"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/wmslite (fallback ~/.config/wmslite)
// macOS:   ~/Library/Application Support/wmslite
// Windows: %APPDATA%/wmslite
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName), nil
}

// DefaultDBPath returns $(CWD)/.wms/wms.db.
func DefaultDBPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName, DefaultDBFileName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > WMS_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDBPath returns the store file following the precedence chain:
// flag > configYAMLValue > WMS_DB_PATH env > DefaultDBPath().
func ResolveDBPath(flag, configYAMLValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configYAMLValue != "" {
		return filepath.Abs(configYAMLValue)
	}
	if env := os.Getenv(EnvDBPath); env != "" {
		return filepath.Abs(env)
	}
	return DefaultDBPath()
}
