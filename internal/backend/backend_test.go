package backend_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/proc"
)

// fakeBrew writes a brew stand-in whose behaviour is a sh case body keyed
// on the first argument.
func fakeBrew(t *testing.T, cases string) *backend.BrewManager {
	t.Helper()
	return backend.NewBrewManager(backend.Options{Bin: writeScript(t, "brew", `case "$1" in
`+cases+`
esac`)})
}

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestBrewFilterRemote(t *testing.T) {
	brew := fakeBrew(t, `search)
	echo "==> Formulae"
	echo "wget"
	echo "wget2"
	echo
	echo "==> Casks"
	echo "wgetcloud"
	;;`)

	got, err := brew.FilterPackages(t.Context(), backend.Remote, "wget")
	require.NoError(t, err)
	require.Equal(t, []string{"wget", "wget2", "wgetcloud"}, got)
}

func TestBrewFilterRemoteNoMatch(t *testing.T) {
	brew := fakeBrew(t, `search)
	echo "Error: No formulae or casks found for \"zzz\"." 1>&2
	exit 1
	;;`)

	got, err := brew.FilterPackages(t.Context(), backend.Remote, "zzz")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBrewFilterLocal(t *testing.T) {
	brew := fakeBrew(t, `list)
	printf 'git\njq\nwget\nripgrep\n'
	;;`)

	got, err := brew.FilterPackages(t.Context(), backend.Local, "wg")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	require.Equal(t, "wget", got[0])
	require.NotContains(t, got, "jq")
}

func TestBrewPackageInfo(t *testing.T) {
	brew := fakeBrew(t, `info)
	printf '==> wget: stable 1.25.0 (bottled), HEAD\nInternet file retriever\n'
	;;`)

	got, err := brew.PackageInfo(t.Context(), "wget")
	require.NoError(t, err)
	require.Equal(t, "==> wget: stable 1.25.0 (bottled), HEAD\nInternet file retriever\n", got)
}

func TestBrewCheckHealth(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		brew := fakeBrew(t, `doctor)
	echo "Your system is ready to brew."
	;;`)
		got, err := brew.CheckHealth(t.Context())
		require.NoError(t, err)
		require.Equal(t, "Your system is ready to brew.\n", got)
	})
	t.Run("warnings", func(t *testing.T) {
		brew := fakeBrew(t, `doctor)
	echo "Warning: Some installed formulae are deprecated." 1>&2
	exit 1
	;;`)
		got, err := brew.CheckHealth(t.Context())
		require.NoError(t, err)
		require.Contains(t, got, "deprecated")
	})
	t.Run("broken", func(t *testing.T) {
		brew := fakeBrew(t, `doctor)
	echo "fatal" 1>&2
	exit 2
	;;`)
		_, err := brew.CheckHealth(t.Context())
		require.Error(t, err)
		var exitErr *proc.ExitError
		require.ErrorAs(t, err, &exitErr)
		require.Equal(t, 2, exitErr.Code)
	})
}

func TestBrewVersion(t *testing.T) {
	brew := fakeBrew(t, `--version)
	printf 'Homebrew 4.4.0\nHomebrew/homebrew-core (git revision abc)\n'
	;;`)

	got, err := brew.Version(t.Context())
	require.NoError(t, err)
	require.Equal(t, "Homebrew 4.4.0", got)
}

func TestBrewInstallStreamsLines(t *testing.T) {
	brew := fakeBrew(t, `install)
	echo "==> Fetching $2"
	echo "==> Pouring $2"
	;;`)

	var mu sync.Mutex
	var got []string
	err := brew.Install(t.Context(), "wget", func(line string) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, line)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"==> Fetching wget", "==> Pouring wget"}, got)
}

func TestBrewSpawnError(t *testing.T) {
	brew := backend.NewBrewManager(backend.Options{Bin: filepath.Join(t.TempDir(), "brew")})

	_, err := brew.FilterPackages(t.Context(), backend.Remote, "wget")
	require.Error(t, err)
	var spawnErr *proc.SpawnError
	require.ErrorAs(t, err, &spawnErr)
}

func TestBrewCancel(t *testing.T) {
	brew := fakeBrew(t, `search)
	exec sleep 30
	;;`)

	ctx, cancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := brew.FilterPackages(ctx, backend.Remote, "wget")
	require.ErrorIs(t, err, backend.ErrCancelled)
	require.Less(t, time.Since(start), 10*time.Second)
}

func TestAptPrivilegedUsesSudo(t *testing.T) {
	sudo := writeScript(t, "sudo", `echo "sudo $*"`)
	apt := backend.NewAptManager(backend.Options{Bin: "apt-get", Sudo: []string{sudo, "-n"}})

	var got []string
	require.NoError(t, apt.Install(t.Context(), "wget", func(line string) { got = append(got, line) }))
	require.Equal(t, []string{"sudo -n apt-get install -y wget"}, got)

	got = nil
	require.NoError(t, apt.Update(t.Context(), "wget", func(line string) { got = append(got, line) }))
	require.Equal(t, []string{"sudo -n apt-get install --only-upgrade -y wget"}, got)
}

func TestAptFilterRemote(t *testing.T) {
	dir := filepath.Dir(writeScript(t, "apt-cache", `printf 'wget - retrieves files from the web\nwget2 - file and recursive website downloader\n'`))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	apt := backend.NewAptManager(backend.Options{Sudo: []string{}})
	got, err := apt.FilterPackages(t.Context(), backend.Remote, "wget")
	require.NoError(t, err)
	require.Equal(t, []string{"wget", "wget2"}, got)
}

func TestParseBackend(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]backend.Backend{
		"brew":     backend.Homebrew,
		"Homebrew": backend.Homebrew,
		"apt":      backend.Apt,
		"dnf":      backend.Dnf,
	} {
		got, err := backend.ParseBackend(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := backend.ParseBackend("emerge")
	require.Error(t, err)
}

func TestNewUnsupported(t *testing.T) {
	t.Parallel()
	_, err := backend.New(backend.Winget, backend.Options{})
	require.ErrorIs(t, err, backend.ErrUnsupported)

	pm, err := backend.New(backend.Homebrew, backend.Options{})
	require.NoError(t, err)
	require.Equal(t, "brew", pm.Alias())
}

func TestDetect(t *testing.T) {
	dir := filepath.Dir(writeScript(t, "apt", `exit 0`))
	t.Setenv("PATH", dir)

	require.Equal(t, []backend.Backend{backend.Apt}, backend.Available())
	b, err := backend.Detect()
	require.NoError(t, err)
	require.Equal(t, backend.Apt, b)

	t.Setenv("PATH", t.TempDir())
	_, err = backend.Detect()
	require.ErrorIs(t, err, backend.ErrNoBackend)
}

func TestLocality(t *testing.T) {
	t.Parallel()
	require.Equal(t, "REMOTE", backend.Remote.String())
	require.Equal(t, "LOCAL", backend.Local.String())
	require.Equal(t, backend.Local, backend.Remote.Toggle())

	l, err := backend.ParseLocality("Local")
	require.NoError(t, err)
	require.Equal(t, backend.Local, l)
	_, err = backend.ParseLocality("nearby")
	require.Error(t, err)
}

type chanSender chan tea.Msg

func (c chanSender) Send(msg tea.Msg) { c <- msg }

func TestWatcherCoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	sent := make(chanSender, 8)
	w, err := backend.NewWatcher([]string{dir}, sent, 50*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644))
	}

	select {
	case msg := <-sent:
		changed, ok := msg.(backend.InstallChangedMsg)
		require.True(t, ok)
		require.Equal(t, dir, filepath.Dir(changed.Path))
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case msg := <-sent:
		t.Fatalf("burst reported twice: %v", msg)
	case <-time.After(200 * time.Millisecond):
	}
}
