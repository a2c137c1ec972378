package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwell/core/version"
)

func TestNewStandardCommand(t *testing.T) {
	cmd := NewStandardCommand("tw", "Test command")

	assert.Equal(t, "tw", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	for _, name := range []string{"verbose", "json", "config"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing flag %s", name)
	}
}

func TestGetOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cmd := NewStandardCommand("tw", "Test command")
		require.NoError(t, cmd.ParseFlags(nil))

		opts := GetOptions(cmd)
		assert.False(t, opts.Verbose)
		assert.False(t, opts.JSONOutput)
		assert.Equal(t, "", opts.ConfigFile)
	})

	t.Run("flags are picked up", func(t *testing.T) {
		cmd := NewStandardCommand("tw", "Test command")
		require.NoError(t, cmd.ParseFlags([]string{"--verbose", "--json", "--config", "/tmp/taskwell.yml"}))

		opts := GetOptions(cmd)
		assert.True(t, opts.Verbose)
		assert.True(t, opts.JSONOutput)
		assert.Equal(t, "/tmp/taskwell.yml", opts.ConfigFile)
	})
}

func TestGetLogger(t *testing.T) {
	t.Run("verbose enables debug level", func(t *testing.T) {
		cmd := NewStandardCommand("tw", "Test command")
		require.NoError(t, cmd.ParseFlags([]string{"--verbose"}))

		logger := GetLogger(cmd)
		assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	})

	t.Run("json switches the formatter", func(t *testing.T) {
		cmd := NewStandardCommand("tw", "Test command")
		require.NoError(t, cmd.ParseFlags([]string{"--json"}))

		logger := GetLogger(cmd)
		assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
	})
}

func TestNewVersionCommand(t *testing.T) {
	t.Run("plain output carries the build info", func(t *testing.T) {
		cmd := NewVersionCommand("tw")
		var out bytes.Buffer
		cmd.SetOut(&out)

		require.NoError(t, cmd.Execute())

		info := version.GetInfo()
		assert.Contains(t, out.String(), "tw "+info.Version)
		assert.Contains(t, out.String(), info.Commit)
		assert.Contains(t, out.String(), info.Platform)
	})

	t.Run("json output decodes back into Info", func(t *testing.T) {
		root := NewStandardCommand("tw", "Test command")
		root.AddCommand(NewVersionCommand("tw"))
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs([]string{"version", "--json"})

		require.NoError(t, root.Execute())

		var info version.Info
		require.NoError(t, json.Unmarshal(out.Bytes(), &info))
		assert.Equal(t, version.GetInfo(), info)
	})
}
