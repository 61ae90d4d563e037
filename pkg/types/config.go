package types

import (
	"errors"
	"net/url"
	"strings"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend   string `json:"backend" yaml:"backend"`
	DataDir   string `json:"data_dir" yaml:"data_dir"`
	RemoteURL string `json:"remote_url,omitempty" yaml:"remote_url,omitempty"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendRemote = "remote"
)

// Config validation errors.
var (
	ErrBackendEmpty     = errors.New("backend must not be empty")
	ErrBackendUnknown   = errors.New("unknown backend")
	ErrRemoteURLEmpty   = errors.New("remote backend requires remote_url")
	ErrRemoteURLInvalid = errors.New("remote_url must be an absolute http or https URL")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendRemote: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Backend == BackendRemote {
		raw := strings.TrimSpace(c.RemoteURL)
		if raw == "" {
			return ErrRemoteURLEmpty
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrRemoteURLInvalid
		}
	}
	return nil
}
