package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
[general]
backend = "brew"
bin = "/opt/homebrew/bin/brew"
locality = "local"
verbose = true

[ui]
confirm = false
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "brew", cfg.General.Backend)
	require.True(t, cfg.General.Verbose)
	require.True(t, cfg.General.Watch, "unset keys keep their default")
	require.False(t, cfg.UI.Confirm)
	require.Equal(t, backend.Local, cfg.Locality())
	require.Equal(t, "/opt/homebrew/bin/brew", cfg.BackendOptions().Bin)

	b, err := cfg.Backend()
	require.NoError(t, err)
	require.Equal(t, backend.Homebrew, b)
}

func TestLoadRejects(t *testing.T) {
	t.Parallel()
	for name, body := range map[string]string{
		"unknown key":      "[general]\nbakend = \"brew\"\n",
		"bad backend":      "[general]\nbackend = \"emerge\"\n",
		"bad locality":     "[general]\nlocality = \"moon\"\n",
		"malformed toml":   "[general\n",
		"wrong value type": "[general]\nverbose = \"yes\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Load(writeConfig(t, body))
			require.Error(t, err)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("WHEREHOUSE_CONFIG", "/tmp/custom.toml")
	require.Equal(t, "/tmp/custom.toml", config.DefaultPath())

	t.Setenv("WHEREHOUSE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	require.Equal(t, "/xdg/wherehouse/config.toml", config.DefaultPath())
}

func TestLogPath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")
	cfg := config.Default()
	require.Equal(t, "/state/wherehouse/wherehouse.log", cfg.LogPath())

	cfg.General.LogFile = "/var/log/wh.log"
	require.Equal(t, "/var/log/wh.log", cfg.LogPath())
}
