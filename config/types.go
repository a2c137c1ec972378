// Package config loads the Taskwell client configuration. Settings come
// from three layers, later layers winning: the global
// ~/.config/taskwell/config.toml, a project-local taskwell.yml found by
// walking up from the working directory, and TASKWELL_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/taskwell/core/logging"
)

// Auth schemes supported by the API client.
const (
	AuthSchemeBearer = "bearer"
	AuthSchemeCookie = "cookie"
)

// TUIConfig holds TUI-specific settings.
type TUIConfig struct {
	Theme string `yaml:"theme,omitempty" toml:"theme,omitempty"`
	Icons string `yaml:"icons,omitempty" toml:"icons,omitempty"` // "unicode" or "ascii"
}

// Config represents the taskwell.yml configuration.
type Config struct {
	// APIURL is the base URL of the Taskwell server.
	APIURL string `yaml:"api_url,omitempty" toml:"api_url,omitempty"`

	// AuthScheme selects how the session is carried: "bearer" persists the
	// access token locally and echoes it in the Authorization header;
	// "cookie" relies on a server-set session cookie. Chosen once per
	// deployment, not per call.
	AuthScheme string `yaml:"auth_scheme,omitempty" toml:"auth_scheme,omitempty"`

	// TimeoutSeconds bounds every API request.
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"`

	Logging *logging.Config `yaml:"logging,omitempty" toml:"logging,omitempty"`
	TUI     *TUIConfig      `yaml:"tui,omitempty" toml:"tui,omitempty"`

	// Extensions captures all other top-level keys for extensibility.
	Extensions map[string]interface{} `yaml:",inline" toml:"-"`
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://localhost:8000"
	}
	if c.AuthScheme == "" {
		c.AuthScheme = AuthSchemeBearer
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.AuthScheme != AuthSchemeBearer && c.AuthScheme != AuthSchemeCookie {
		return fmt.Errorf("auth_scheme must be %q or %q, got %q",
			AuthSchemeBearer, AuthSchemeCookie, c.AuthScheme)
	}
	return nil
}

// UnmarshalExtension decodes a specific extension's configuration from the
// loaded taskwell.yml into the provided target struct. The target must be a
// pointer. This provides a type-safe way for companion tools to access their
// custom configuration sections.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		// It's not an error if the key doesn't exist.
		// The target struct will simply remain zero-valued.
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "yaml",
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
