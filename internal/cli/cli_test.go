package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const fakeBrew = `#!/bin/sh
case "$1" in
search)
	echo "==> Formulae"
	echo "$2"
	echo "$2-lite"
	;;
list)
	printf 'git\njq\nwget\n'
	;;
info)
	echo "==> $2: stable 1.25.0 (bottled), HEAD"
	echo "Internet file retriever"
	;;
doctor)
	echo "Your system is ready to brew."
	;;
config)
	echo "HOMEBREW_VERSION: 4.4.0"
	;;
--version)
	echo "Homebrew 4.4.0"
	;;
esac
`

// setup writes a fake brew and a config pointing at it.
func setup(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "brew")
	require.NoError(t, os.WriteFile(bin, []byte(fakeBrew), 0o755))

	cfg := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfg, []byte(`[general]
backend = "brew"
bin = "`+bin+`"
watch = false
`), 0o644))
	return cfg
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	rt := &runtime{}
	t.Cleanup(rt.close)
	cmd := newRootCmd(rt)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return stdout.String(), stderr.String(), err
}

func TestSearch(t *testing.T) {
	cfg := setup(t)
	out, _, err := run(t, "--config", cfg, "search", "wget")
	require.NoError(t, err)
	require.Equal(t, "wget\nwget-lite\n", out)
}

func TestSearchLocalJSON(t *testing.T) {
	cfg := setup(t)
	out, _, err := run(t, "--config", cfg, "--format", "json", "search", "--local", "wg")
	require.NoError(t, err)

	var res searchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Equal(t, "brew", res.Backend)
	require.Equal(t, "LOCAL", res.Locality)
	require.Equal(t, "wget", res.Packages[0])
	require.NotContains(t, res.Packages, "jq")
}

func TestSearchNoMatch(t *testing.T) {
	cfg := setup(t)
	out, errOut, err := run(t, "--config", cfg, "search", "--local", "zzzz")
	require.NoError(t, err)
	require.Empty(t, out)
	require.Contains(t, errOut, `no local packages match "zzzz"`)
}

func TestInfoYAML(t *testing.T) {
	cfg := setup(t)
	out, _, err := run(t, "--config", cfg, "--format", "yaml", "info", "wget")
	require.NoError(t, err)

	var res infoResult
	require.NoError(t, yaml.Unmarshal([]byte(out), &res))
	require.Equal(t, "wget", res.Package)
	require.Contains(t, res.Info, "Internet file retriever")
}

func TestDoctorAndConfig(t *testing.T) {
	cfg := setup(t)

	out, _, err := run(t, "--config", cfg, "doctor")
	require.NoError(t, err)
	require.Contains(t, out, "Homebrew doctor")
	require.Contains(t, out, "ready to brew")

	out, _, err = run(t, "--config", cfg, "config")
	require.NoError(t, err)
	require.Contains(t, out, "HOMEBREW_VERSION: 4.4.0")
}

func TestVersion(t *testing.T) {
	cfg := setup(t)
	out, _, err := run(t, "--config", cfg, "--format", "json", "version")
	require.NoError(t, err)

	var v versionInfo
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Equal(t, "dev", v.Version)
	require.Equal(t, cfg, v.Config)
	require.Equal(t, "brew", v.Backend)
	require.Equal(t, "Homebrew 4.4.0", v.BackendVersion)
}

func TestBackends(t *testing.T) {
	cfg := setup(t)
	out, _, err := run(t, "--config", cfg, "--format", "json", "backends")
	require.NoError(t, err)

	var list []backendStatus
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 6)
	require.Equal(t, "brew", list[0].Alias)
	require.True(t, list[0].Selected)
	require.True(t, list[0].Supported)
	require.False(t, list[1].Supported)
}

func TestFlagErrors(t *testing.T) {
	cfg := setup(t)

	_, _, err := run(t, "--config", cfg, "--format", "xml", "search", "wget")
	require.ErrorContains(t, err, `unknown format "xml"`)

	_, _, err = run(t, "--config", cfg, "--backend", "portage", "search", "wget")
	require.ErrorContains(t, err, "--backend")

	_, _, err = run(t, "--config", cfg, "info")
	require.Error(t, err)
}

func TestUnknownConfigKey(t *testing.T) {
	cfg := setup(t)
	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Replace(string(data), "watch", "wtach", 1)), 0o644))

	_, _, err = run(t, "--config", cfg, "doctor")
	require.ErrorContains(t, err, "general.wtach")
}
