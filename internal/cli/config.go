// Config loading for the accountdesk CLI.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/accountdesk/internal/navigate"
	"github.com/mesh-intelligence/accountdesk/internal/paths"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "ACCOUNTDESK"

	cfgKeyBackend           = "backend"
	cfgKeyDataDir           = "data_dir"
	cfgKeyRemoteURL         = "remote_url"
	cfgKeyRecordURLTemplate = "record_url_template"
	cfgKeyLogLevel          = "log_level"
	cfgKeyLogFormat         = "log_format"
	cfgKeyMaxConcurrent     = "max_concurrent_updates"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# accountdesk configuration
# Every key can be overridden with an ACCOUNTDESK_<KEY> environment variable.

# Backend selection: sqlite (local accounts.jsonl) or remote (accountdesk serve)
backend: sqlite

# Data directory for the sqlite backend (optional; overridable by --data-dir)
# data_dir:

# Base URL of a remote accountdesk server
# remote_url: http://localhost:8080

# Detail view opened for a record; {id} is replaced by the record ID
# record_url_template: https://example.my.salesforce.com/lightning/r/Account/{id}/view

log_level: info
log_format: console

# Cap on concurrent record updates during save; 0 means unlimited
max_concurrent_updates: 0
`

// settings is the resolved configuration for one command run.
type settings struct {
	dirs              paths.Dirs
	backend           string
	remoteURL         string
	recordURLTemplate string
	logLevel          string
	logFormat         string
	maxConcurrent     int
}

// backendConfig returns the types.Config passed to Backend.Attach.
func (s settings) backendConfig() types.Config {
	return types.Config{
		Backend:   s.backend,
		DataDir:   s.dirs.Data,
		RemoteURL: s.remoteURL,
	}
}

// loadConfig reads config.yaml from configDir with Viper, creating the
// directory and a default file on first run. Environment variables with
// the ACCOUNTDESK_ prefix override file values.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyRecordURLTemplate, navigate.DefaultRecordURLTemplate)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "console")
	v.SetDefault(cfgKeyMaxConcurrent, 0)
	for _, key := range []string{cfgKeyDataDir, cfgKeyRemoteURL} {
		v.SetDefault(key, "")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml if it does not exist.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

// resolveSettings combines flags, config.yaml and the environment.
func (a *app) resolveSettings() (settings, error) {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return settings{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return settings{}, err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, fmt.Errorf("resolve data dir: %w", err)
	}

	s := settings{
		dirs:              paths.Dirs{Config: configDir, Data: dataDir},
		backend:           v.GetString(cfgKeyBackend),
		remoteURL:         v.GetString(cfgKeyRemoteURL),
		recordURLTemplate: v.GetString(cfgKeyRecordURLTemplate),
		logLevel:          v.GetString(cfgKeyLogLevel),
		logFormat:         v.GetString(cfgKeyLogFormat),
		maxConcurrent:     v.GetInt(cfgKeyMaxConcurrent),
	}
	if a.flags.remoteURL != "" {
		s.backend = types.BackendRemote
		s.remoteURL = a.flags.remoteURL
	}
	if err := s.backendConfig().Validate(); err != nil {
		return settings{}, userError(fmt.Errorf("config: %w", err))
	}
	return s, nil
}
