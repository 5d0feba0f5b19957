// Package config loads server settings from ~/.mcp-pubdev/config.yaml and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sammcj/mcp-pubdev/internal/pubdev"
	"github.com/sammcj/mcp-pubdev/internal/utils/httpclient"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file settings
const (
	ConfigPathEnvVar  = "MCP_PUBDEV_CONFIG"
	HTTPTimeoutEnvVar = "PUBDEV_HTTP_TIMEOUT"
	RateLimitEnvVar   = "PACKAGES_RATE_LIMIT"
	UserAgentEnvVar   = "PUBDEV_USER_AGENT"
	RegistryURLEnvVar = "PUBDEV_REGISTRY_URL"
)

const (
	DefaultHTTPTimeout = httpclient.DefaultTimeout
	DefaultRateLimit   = httpclient.DefaultRateLimit
	DefaultRegistryURL = pubdev.DefaultBaseURL
	DefaultUserAgent   = pubdev.DefaultUserAgent
)

// Config holds the tunable settings
type Config struct {
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	RateLimit     float64       `yaml:"rate_limit"`
	UserAgent     string        `yaml:"user_agent"`
	RegistryURL   string        `yaml:"registry_url"`
	DisabledTools []string      `yaml:"disabled_tools"`
}

// Default returns the built in settings
func Default() *Config {
	return &Config{
		HTTPTimeout: DefaultHTTPTimeout,
		RateLimit:   DefaultRateLimit,
		UserAgent:   DefaultUserAgent,
		RegistryURL: DefaultRegistryURL,
	}
}

// Dir returns the per user state directory, ~/.mcp-pubdev
func Dir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".mcp-pubdev"
	}
	return filepath.Join(homeDir, ".mcp-pubdev")
}

// DefaultPath returns the config file location, honouring MCP_PUBDEV_CONFIG
func DefaultPath() string {
	if custom := os.Getenv(ConfigPathEnvVar); custom != "" {
		return custom
	}
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads path over the defaults and applies environment overrides. An
// empty path means DefaultPath, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides settings from environment variables found by lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(HTTPTimeoutEnvVar); ok && v != "" {
		d, err := parseTimeout(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", HTTPTimeoutEnvVar, err)
		}
		c.HTTPTimeout = d
	}

	if v, ok := lookup(RateLimitEnvVar); ok && v != "" {
		limit, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || limit <= 0 {
			return fmt.Errorf("invalid %s: %q is not a positive number", RateLimitEnvVar, v)
		}
		c.RateLimit = limit
	}

	if v, ok := lookup(UserAgentEnvVar); ok && strings.TrimSpace(v) != "" {
		c.UserAgent = strings.TrimSpace(v)
	}

	if v, ok := lookup(RegistryURLEnvVar); ok && strings.TrimSpace(v) != "" {
		c.RegistryURL = strings.TrimSpace(v)
	}

	return nil
}

// Validate rejects settings the client cannot run with
func (c *Config) Validate() error {
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive, got %g", c.RateLimit)
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.RegistryURL == "" {
		c.RegistryURL = DefaultRegistryURL
	}
	return nil
}

// parseTimeout accepts a Go duration ("45s") or a number of seconds ("45")
func parseTimeout(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	return time.ParseDuration(v)
}
