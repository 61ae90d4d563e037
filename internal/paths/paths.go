// Package paths resolves where accountdesk keeps its configuration and its
// account data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName is the directory name used under platform config/data roots.
const appName = "accountdesk"

// File names inside the resolved directories.
const (
	ConfigFileName = "config.yaml"
	LogFileName    = "accountdesk.log"
)

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".accountdesk-db"

// Environment overrides.
const (
	EnvConfigDir = "ACCOUNTDESK_CONFIG_DIR"
	EnvDataDir   = "ACCOUNTDESK_DATA_DIR"
)

// platformDir can be replaced in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// Dirs is a resolved pair of directories.
type Dirs struct {
	Config string
	Data   string
}

// ConfigFile returns the path of config.yaml.
func (d Dirs) ConfigFile() string {
	return filepath.Join(d.Config, ConfigFileName)
}

// LogFile returns the path of the interactive grid's log file.
func (d Dirs) LogFile() string {
	return filepath.Join(d.Data, LogFileName)
}

// DefaultConfigDir returns the platform configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/accountdesk (fallback ~/.config/accountdesk)
// macOS:   ~/Library/Application Support/accountdesk
// Windows: %APPDATA%/accountdesk
func DefaultConfigDir() (string, error) {
	return xdgOrPlatform("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform data directory.
//
// Linux:   $XDG_DATA_HOME/accountdesk (fallback ~/.local/share/accountdesk)
// macOS and Windows share the config root.
func DefaultDataDir() (string, error) {
	return xdgOrPlatform("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgOrPlatform(xdgVar, homeFallback string) (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeFallback, appName), nil
}

// ResolveConfigDir applies flag > ACCOUNTDESK_CONFIG_DIR > DefaultConfigDir.
// Explicit values are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstNonEmpty(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir applies flag > config.yaml data_dir > ACCOUNTDESK_DATA_DIR
// > $(CWD)/.accountdesk-db. Explicit values are made absolute.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	if dir := firstNonEmpty(flag, configYAMLValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return filepath.Abs(DefaultDataDirName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
