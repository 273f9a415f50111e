package app

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/require"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/config"
	"github.com/olivoil/wherehouse/internal/state"
	"github.com/olivoil/wherehouse/internal/task"
	"github.com/olivoil/wherehouse/internal/views/command"
)

type stubPM struct {
	mu        sync.Mutex
	installed []string
	patterns  []string
}

func (s *stubPM) Name() string  { return "Stub" }
func (s *stubPM) Alias() string { return "stub" }

func (s *stubPM) FilterPackages(_ context.Context, _ backend.Locality, pattern string) ([]string, error) {
	s.mu.Lock()
	s.patterns = append(s.patterns, pattern)
	s.mu.Unlock()
	return []string{pattern, pattern + "-extra"}, nil
}

func (s *stubPM) PackageInfo(_ context.Context, name string) (string, error) {
	return "info " + name, nil
}

func (s *stubPM) CheckHealth(context.Context) (string, error) { return "ready to brew", nil }
func (s *stubPM) Config(context.Context) (string, error)      { return "prefix: /opt", nil }
func (s *stubPM) Version(context.Context) (string, error)     { return "Stub 1.0", nil }

func (s *stubPM) Install(_ context.Context, name string, lines backend.LineFunc) error {
	s.mu.Lock()
	s.installed = append(s.installed, name)
	s.mu.Unlock()
	lines("Pouring " + name)
	return nil
}

func (s *stubPM) Update(context.Context, string, backend.LineFunc) error    { return nil }
func (s *stubPM) Uninstall(context.Context, string, backend.LineFunc) error { return nil }
func (s *stubPM) Clean(context.Context, backend.LineFunc) (string, error)   { return "", nil }

func (s *stubPM) Installed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.installed...)
}

func (s *stubPM) LastPattern() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.patterns) == 0 {
		return ""
	}
	return s.patterns[len(s.patterns)-1]
}

func newTestModel(t *testing.T, confirm bool) (model, *stubPM) {
	t.Helper()
	pm := &stubPM{}
	cfg := config.Default()
	cfg.UI.Confirm = confirm
	st := state.New(backend.Remote)
	mgr := task.New(pm, st, nil)
	t.Cleanup(mgr.Close)
	m := newModel(Options{Backend: backend.Homebrew, PM: pm, Config: cfg}, st, mgr)
	m, _ = m.update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, pm
}

func keyPress(s string) tea.KeyPressMsg {
	switch s {
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "ctrl+l":
		return tea.KeyPressMsg{Code: 'l', Mod: tea.ModCtrl}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func send(m model, msgs ...tea.Msg) model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(model)
	}
	return m
}

func wait(t *testing.T, m model, kinds ...task.Kind) {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	for _, k := range kinds {
		require.NoError(t, m.tasks.Wait(ctx, k))
	}
}

func TestTypingFiltersAndLoadsDetails(t *testing.T) {
	m, pm := newTestModel(t, true)
	require.Equal(t, state.Insert, m.st.InputMode())

	m = send(m, keyPress("w"), keyPress("g"))
	wait(t, m, task.FilterPackages)
	require.Equal(t, "wg", m.st.Query())
	require.Equal(t, []string{"wg", "wg-extra"}, m.st.Results())
	require.Equal(t, "wg", pm.LastPattern())

	// The new list triggers details for the first entry.
	m = send(m, TaskUpdateMsg{Kind: task.FilterPackages})
	wait(t, m, task.PackageInfo)
	require.Equal(t, "info wg", m.st.Detail())

	m = send(m, keyPress("esc"), keyPress("j"))
	require.Equal(t, state.Normal, m.st.InputMode())
	require.Equal(t, 1, m.st.Selected())
	wait(t, m, task.PackageInfo)
	require.Equal(t, "info wg-extra", m.st.Detail())
}

func TestRefreshReloadsDetailsForNewSelection(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = send(m, keyPress("w"), keyPress("g"))
	wait(t, m, task.FilterPackages)
	m = send(m, TaskUpdateMsg{Kind: task.FilterPackages})
	wait(t, m, task.PackageInfo)

	m = send(m, keyPress("esc"), keyPress("j"))
	wait(t, m, task.PackageInfo)
	require.Equal(t, "info wg-extra", m.st.Detail())

	// The same list comes back and the selection returns to the top.
	m = send(m, keyPress("ctrl+l"))
	wait(t, m, task.FilterPackages)
	require.Zero(t, m.st.Selected())

	m = send(m, TaskUpdateMsg{Kind: task.FilterPackages})
	wait(t, m, task.PackageInfo)
	require.Equal(t, "info wg", m.st.Detail())
}

func TestSelectionChangeCancelsConfirm(t *testing.T) {
	m, pm := newTestModel(t, true)
	m.st.SetResults([]string{"wget", "jq"})
	m = send(m, keyPress("esc"), keyPress("I"))
	require.NotNil(t, m.pending)

	m.st.SetResults([]string{"jq"})
	m = send(m, keyPress("y"))
	wait(t, m, task.InstallPackage)
	require.Empty(t, pm.Installed())
	require.True(t, m.notice.err)
	require.Contains(t, m.notice.text, "install not started")

	m = send(m, keyPress("j"))
	require.Empty(t, m.notice.text)
}

func TestVersionRouteShowsNotice(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = send(m, command.ExecuteMsg{Route: command.Route{Action: command.ActionVersion}})
	require.False(t, m.notice.err)
	require.Contains(t, m.notice.text, AppName+" "+AppVersion)
	require.Contains(t, m.notice.text, "Stub (stub)")
}

func TestInstallAsksFirst(t *testing.T) {
	m, pm := newTestModel(t, true)
	m.st.SetResults([]string{"wget"})
	m = send(m, keyPress("esc"), keyPress("I"))
	require.NotNil(t, m.pending)
	require.Equal(t, "wget", m.pending.name)

	m = send(m, keyPress("n"))
	require.Nil(t, m.pending)
	require.Empty(t, pm.Installed())

	m = send(m, keyPress("I"), keyPress("y"))
	wait(t, m, task.InstallPackage)
	require.Equal(t, []string{"wget"}, pm.Installed())
	require.Equal(t, state.PaneActivity, m.st.Pane())
	require.Contains(t, m.st.Activity(), "Pouring wget")
}

func TestInstallWithoutSelectionDoesNothing(t *testing.T) {
	m, pm := newTestModel(t, false)
	m = send(m, keyPress("esc"), keyPress("I"))
	require.Nil(t, m.pending)
	wait(t, m, task.InstallPackage)
	require.Empty(t, pm.Installed())
}

func TestRouteInstallsNamedPackage(t *testing.T) {
	m, pm := newTestModel(t, false)
	m = send(m, command.ExecuteMsg{Route: command.Route{Action: command.ActionInstall, Arg: "jq"}})
	wait(t, m, task.InstallPackage)
	require.Equal(t, []string{"jq"}, pm.Installed())
	require.Equal(t, []string{"jq"}, m.st.Results())
}

func TestLocalityToggle(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = send(m, keyPress("esc"), keyPress("L"))
	require.Equal(t, backend.Local, m.st.Locality())

	m = send(m, command.ExecuteMsg{Route: command.Route{Action: command.ActionRemote}})
	require.Equal(t, backend.Remote, m.st.Locality())
}

func TestDoctorSwitchesPane(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = send(m, keyPress("esc"), keyPress("d"))
	wait(t, m, task.CheckHealth)
	m = send(m, TaskUpdateMsg{Kind: task.CheckHealth})
	require.Equal(t, state.PaneHealth, m.st.Pane())
	require.Contains(t, m.outputView.View(), "ready to brew")
}
