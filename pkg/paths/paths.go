// Package paths resolves where Taskwell keeps its files on disk.
//
// Resolution order:
// 1. TASKWELL_HOME (portable root) → $TASKWELL_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/taskwell
// 3. Platform defaults → ~/.config/taskwell, ~/.taskwell
package paths

import (
	"os"
	"path/filepath"
)

const appDir = "taskwell"

// ConfigDir returns the directory holding the global config.toml.
func ConfigDir() string {
	if home := os.Getenv("TASKWELL_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", appDir)
	}
	return ""
}

// StateDir returns the directory holding the session state file. The
// dot-directory default predates XDG support and is kept for existing
// installs; XDG_STATE_HOME opts into the spec-compliant location.
func StateDir() string {
	if home := os.Getenv("TASKWELL_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".taskwell")
	}
	return ""
}

// LogDir returns the directory component loggers write their files to.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// StateFile returns the path of the session state file.
func StateFile() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "state.yml")
}

// GlobalConfigFile returns the path of the global TOML config.
func GlobalConfigFile() string {
	cfg := ConfigDir()
	if cfg == "" {
		return ""
	}
	return filepath.Join(cfg, "config.toml")
}

// EnsureDirs creates the Taskwell directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
