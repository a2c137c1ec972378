package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/core/errors"
)

// isolateHome points the home directory at a temp dir so the global config
// layer is empty unless a test writes one.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TASKWELL_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "")
	return home
}

func writeProjectConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFindConfigFile(t *testing.T) {
	t.Run("finds the file in the start directory", func(t *testing.T) {
		dir := t.TempDir()
		want := writeProjectConfig(t, dir, "api_url: http://x\n")

		got, err := FindConfigFile(dir)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("walks up to a parent", func(t *testing.T) {
		root := t.TempDir()
		want := writeProjectConfig(t, root, "api_url: http://x\n")
		nested := filepath.Join(root, "a", "b", "c")
		require.NoError(t, os.MkdirAll(nested, 0755))

		got, err := FindConfigFile(nested)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("missing file is a typed error", func(t *testing.T) {
		_, err := FindConfigFile(t.TempDir())
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
	})
}

func TestLoad(t *testing.T) {
	t.Run("defaults apply with no files", func(t *testing.T) {
		isolateHome(t)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000", cfg.APIURL)
		assert.Equal(t, AuthSchemeBearer, cfg.AuthScheme)
		assert.Equal(t, 10, cfg.TimeoutSeconds)
		assert.Equal(t, 10*time.Second, cfg.Timeout())
	})

	t.Run("project file wins over defaults", func(t *testing.T) {
		isolateHome(t)
		path := writeProjectConfig(t, t.TempDir(),
			"api_url: https://tasks.example.com\nauth_scheme: cookie\ntimeout_seconds: 30\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://tasks.example.com", cfg.APIURL)
		assert.Equal(t, AuthSchemeCookie, cfg.AuthScheme)
		assert.Equal(t, 30, cfg.TimeoutSeconds)
	})

	t.Run("project file wins over the global layer", func(t *testing.T) {
		home := isolateHome(t)
		globalDir := filepath.Join(home, ".config", "taskwell")
		require.NoError(t, os.MkdirAll(globalDir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(globalDir, "config.toml"),
			[]byte("api_url = \"https://global.example.com\"\ntimeout_seconds = 60\n"), 0644))

		path := writeProjectConfig(t, t.TempDir(), "api_url: https://project.example.com\n")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://project.example.com", cfg.APIURL)
		assert.Equal(t, 60, cfg.TimeoutSeconds, "untouched global values survive the merge")
	})

	t.Run("environment wins over files", func(t *testing.T) {
		isolateHome(t)
		path := writeProjectConfig(t, t.TempDir(), "api_url: https://file.example.com\n")
		t.Setenv("TASKWELL_API_URL", "https://env.example.com")
		t.Setenv("TASKWELL_TIMEOUT_SECONDS", "5")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "https://env.example.com", cfg.APIURL)
		assert.Equal(t, 5, cfg.TimeoutSeconds)
	})

	t.Run("missing project file errors", func(t *testing.T) {
		isolateHome(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
	})

	t.Run("malformed yaml errors", func(t *testing.T) {
		isolateHome(t)
		path := writeProjectConfig(t, t.TempDir(), "api_url: [broken\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
	})

	t.Run("invalid auth scheme is rejected", func(t *testing.T) {
		isolateHome(t)
		path := writeProjectConfig(t, t.TempDir(), "auth_scheme: basic\n")
		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
	})
}

func TestUnmarshalExtension(t *testing.T) {
	isolateHome(t)
	path := writeProjectConfig(t, t.TempDir(), `api_url: http://localhost:8000
mytool:
  endpoint: https://hooks.example.com
  retries: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	type myToolConfig struct {
		Endpoint string `yaml:"endpoint"`
		Retries  int    `yaml:"retries"`
	}

	var mt myToolConfig
	require.NoError(t, cfg.UnmarshalExtension("mytool", &mt))
	assert.Equal(t, "https://hooks.example.com", mt.Endpoint)
	assert.Equal(t, 3, mt.Retries)

	t.Run("unknown key leaves the target zero-valued", func(t *testing.T) {
		var other myToolConfig
		require.NoError(t, cfg.UnmarshalExtension("othertool", &other))
		assert.Zero(t, other)
	})
}
