package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted when no CLI config file can be read
const (
	EnvURL       = "CATTLE_URL"
	EnvAccessKey = "CATTLE_ACCESS_KEY"
	EnvSecretKey = "CATTLE_SECRET_KEY"
)

// APIVersionPath is joined onto the host found in the CLI config file
const APIVersionPath = "/v2-beta"

// ErrMissingCredentials is returned when neither source yields a complete set
var ErrMissingCredentials = errors.New("cattle url, access key and secret key are required")

// Config holds the endpoint and API key pair for a Cattle environment
type Config struct {
	// URL is the API base, always ending in a slash
	URL       string
	AccessKey string
	SecretKey string

	// Environment is the default project (account) id, when known
	Environment string

	// Source records where the values came from (file path or "env")
	Source string
}

// cliFile mirrors the subset of ~/.rancher/cli.json that we read
type cliFile struct {
	URL         string `json:"url"`
	AccessKey   string `json:"accessKey"`
	SecretKey   string `json:"secretKey"`
	Environment string `json:"environment"`
}

// DefaultPath returns the rancher CLI config location
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".rancher", "cli.json")
	}
	return filepath.Join(home, ".rancher", "cli.json")
}

// Load resolves configuration from the file at path, falling back to the
// CATTLE_* environment variables when the file is absent or unreadable.
// An empty path means DefaultPath.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	cfg, err := loadFromFile(path)
	if err != nil {
		cfg = loadFromEnv()
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadFromFile reads a rancher CLI config file
func loadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var f cliFile
	if err := json.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	base, err := joinAPIPath(f.URL)
	if err != nil {
		return Config{}, err
	}

	return Config{
		URL:         WithTrailingSlash(base),
		AccessKey:   f.AccessKey,
		SecretKey:   f.SecretKey,
		Environment: f.Environment,
		Source:      path,
	}, nil
}

// loadFromEnv reads the CATTLE_* variables; CATTLE_URL is used as given
func loadFromEnv() Config {
	raw := os.Getenv(EnvURL)
	cfg := Config{
		AccessKey: os.Getenv(EnvAccessKey),
		SecretKey: os.Getenv(EnvSecretKey),
		Source:    "env",
	}
	if raw != "" {
		cfg.URL = WithTrailingSlash(raw)
	}
	return cfg
}

// joinAPIPath replaces the path of the configured server URL with the
// versioned API root, e.g. https://rancher.example.com/ becomes
// https://rancher.example.com/v2-beta
func joinAPIPath(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("config file has no url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	u.Path = APIVersionPath
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

// WithTrailingSlash collapses any trailing slashes into exactly one
func WithTrailingSlash(s string) string {
	return strings.TrimRight(s, "/") + "/"
}

// Validate checks that all three values are present
func (c Config) Validate() error {
	if c.URL == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrMissingCredentials
	}
	if _, err := url.Parse(c.URL); err != nil {
		return fmt.Errorf("invalid cattle url %q: %w", c.URL, err)
	}
	return nil
}
