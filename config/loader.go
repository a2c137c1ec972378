package config

import (
	"os"
	"path/filepath"
	"strconv"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/taskwell/core/errors"
	"github.com/taskwell/core/logging"
	"github.com/taskwell/core/pkg/paths"
)

// ConfigFileName is the project-local configuration file name.
const ConfigFileName = "taskwell.yml"

// FindConfigFile walks up from startDir looking for taskwell.yml.
func FindConfigFile(startDir string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.ConfigNotFound(ConfigFileName)
		}
		dir = parent
	}
}

// Load builds the effective configuration: global TOML, then the project
// file at path (may be empty), then environment overrides, then defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if global := paths.GlobalConfigFile(); global != "" {
		if data, err := os.ReadFile(global); err == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, errors.ConfigInvalid(global + ": " + err.Error())
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.ConfigNotFound(path)
		}
		var project Config
		if err := yaml.Unmarshal(data, &project); err != nil {
			return nil, errors.ConfigInvalid(path + ": " + err.Error())
		}
		merge(cfg, &project)
	}

	applyEnv(cfg)
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	if cfg.Logging != nil {
		// Make the file's logging section effective for loggers built later.
		// Loggers created before Load keep their defaults.
		logging.Configure(*cfg.Logging)
	}

	return cfg, nil
}

// LoadDefault loads configuration by discovering taskwell.yml from the
// current working directory. A missing project file is not an error; the
// global and default layers still apply.
func LoadDefault() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	path, err := FindConfigFile(cwd)
	if err != nil {
		path = ""
	}
	return Load(path)
}

// merge overlays non-zero fields of src onto dst.
func merge(dst, src *Config) {
	if src.APIURL != "" {
		dst.APIURL = src.APIURL
	}
	if src.AuthScheme != "" {
		dst.AuthScheme = src.AuthScheme
	}
	if src.TimeoutSeconds != 0 {
		dst.TimeoutSeconds = src.TimeoutSeconds
	}
	if src.Logging != nil {
		dst.Logging = src.Logging
	}
	if src.TUI != nil {
		dst.TUI = src.TUI
	}
	if len(src.Extensions) > 0 {
		if dst.Extensions == nil {
			dst.Extensions = make(map[string]interface{}, len(src.Extensions))
		}
		for k, v := range src.Extensions {
			dst.Extensions[k] = v
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKWELL_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TASKWELL_AUTH_SCHEME"); v != "" {
		cfg.AuthScheme = v
	}
	if v := os.Getenv("TASKWELL_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutSeconds = n
		}
	}
}
