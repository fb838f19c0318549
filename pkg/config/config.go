// Package config holds the CLI configuration file format and the flag >
// environment > file > default resolution that produces the single Resolved
// object handed to every component at process start.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	VersionV1 = "v1"

	// Development fallbacks, overridable via config file, environment, or
	// flags. Not a production secret-management story.
	DefaultServerURL = "http://localhost:3005"
	DefaultClientID  = "vvs-cli"
	DefaultModel     = "gemini-2.5-flash"

	// StorageFile and StorageKeychain are the token storage backends.
	StorageFile     = "file"
	StorageKeychain = "keychain"
)

// DefaultScopes requested during login.
var DefaultScopes = []string{"openid", "profile", "email"}

type Config struct {
	Version        string   `yaml:"version"`
	ServerURL      string   `yaml:"server-url,omitempty"`
	ClientID       string   `yaml:"client-id,omitempty"`
	Scopes         []string `yaml:"scopes,omitempty"`
	DeviceEndpoint string   `yaml:"device-endpoint,omitempty"`
	TokenEndpoint  string   `yaml:"token-endpoint,omitempty"`
	TokenStorage   string   `yaml:"token-storage,omitempty"`
	Settings       Settings `yaml:"settings,omitempty"`
}

type Settings struct {
	OutputFormat string `yaml:"output-format,omitempty"`
	Model        string `yaml:"model,omitempty"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.Version == "" {
		cfg.Version = VersionV1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	content, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, content, 0o600)
}

// Overrides carries flag and environment values that take precedence over
// the config file.
type Overrides struct {
	ServerURL    string
	ClientID     string
	TokenStorage string
	OutputFormat string
	Model        string
}

// Resolved is the effective configuration, computed once at process start
// and passed by parameter into the auth client and command controllers.
type Resolved struct {
	ServerURL      string
	ClientID       string
	Scopes         []string
	DeviceEndpoint string
	TokenEndpoint  string
	Issuer         string
	TokenStorage   string
	OutputFormat   string
	Model          string
}

// Resolve merges overrides onto the file config and fills defaults. The
// device and token endpoints default to the provider's auth mount under the
// server URL when not set explicitly.
func Resolve(cfg *Config, overrides Overrides) (*Resolved, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	res := &Resolved{
		ServerURL:      firstNonEmpty(overrides.ServerURL, cfg.ServerURL, DefaultServerURL),
		ClientID:       firstNonEmpty(overrides.ClientID, cfg.ClientID, DefaultClientID),
		Scopes:         cfg.Scopes,
		TokenStorage:   firstNonEmpty(overrides.TokenStorage, cfg.TokenStorage, StorageFile),
		OutputFormat:   firstNonEmpty(overrides.OutputFormat, cfg.Settings.OutputFormat, "table"),
		Model:          firstNonEmpty(overrides.Model, cfg.Settings.Model, DefaultModel),
		DeviceEndpoint: cfg.DeviceEndpoint,
		TokenEndpoint:  cfg.TokenEndpoint,
	}
	if len(res.Scopes) == 0 {
		res.Scopes = DefaultScopes
	}
	switch res.TokenStorage {
	case StorageFile, StorageKeychain:
	default:
		return nil, fmt.Errorf("unknown token storage backend: %s", res.TokenStorage)
	}
	base := strings.TrimRight(res.ServerURL, "/") + "/api/auth"
	res.Issuer = base
	if res.DeviceEndpoint == "" {
		res.DeviceEndpoint = base + "/device/code"
	}
	if res.TokenEndpoint == "" {
		res.TokenEndpoint = base + "/device/token"
	}
	return res, nil
}

func (r *Resolved) Scope() string {
	return strings.Join(r.Scopes, " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
