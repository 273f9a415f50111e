package app

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/config"
	"github.com/olivoil/wherehouse/internal/state"
	"github.com/olivoil/wherehouse/internal/task"
	"github.com/olivoil/wherehouse/internal/ui"
	"github.com/olivoil/wherehouse/internal/views/command"
	"github.com/olivoil/wherehouse/internal/views/output"
	"github.com/olivoil/wherehouse/internal/views/results"
	"github.com/olivoil/wherehouse/internal/views/search"
	"github.com/olivoil/wherehouse/internal/views/tasks"
)

// Options configures Run.
type Options struct {
	Backend backend.Backend
	PM      backend.PackageManager
	Config  config.Config
}

// Run starts the TUI application and blocks until it exits.
func Run(ctx context.Context, opts Options) error {
	themePath := opts.Config.UI.Theme
	if themePath == "" {
		themePath = ui.DefaultThemePath()
	}
	ui.SetTheme(ui.LoadTheme(config.ExpandHome(themePath)))

	st := state.New(opts.Config.Locality())

	// Workers start from Init, after p is assigned.
	var p *tea.Program
	mgr := task.New(opts.PM, st, func(k task.Kind) {
		p.Send(TaskUpdateMsg{Kind: k})
	})
	defer mgr.Close()

	m := newModel(opts, st, mgr)
	p = tea.NewProgram(m, tea.WithContext(ctx))

	if opts.Config.General.Watch {
		if dirs := backend.InstallDirs(opts.Backend); len(dirs) > 0 {
			w, err := backend.NewWatcher(dirs, p, backend.DefaultSettle)
			if err != nil {
				slog.Warn("install watcher disabled", "error", err)
			} else {
				defer w.Close()
			}
		}
	}

	_, err := p.Run()
	return err
}

var contentPanes = []state.Pane{
	state.PaneResults,
	state.PaneHealth,
	state.PaneConfig,
	state.PaneActivity,
	state.PaneTasks,
}

// model is the root application model. Everything the workers produce lives
// in st; the views are redrawn from it on every TaskUpdateMsg.
type model struct {
	width    int
	height   int
	ready    bool
	showHelp bool
	spinning bool
	confirm  bool
	keys     KeyMap

	pm    backend.PackageManager
	st    *state.State
	tasks *task.Manager

	pending *pendingAction
	notice  notice

	// detailFor is the package the last details request was issued for.
	detailFor string

	spinner     spinner.Model
	searchView  search.Model
	resultsView results.Model
	outputView  output.Model
	tasksView   tasks.Model
	commandView command.Model
}

func newModel(opts Options, st *state.State, mgr *task.Manager) model {
	sv := search.New()
	sv.Focus()
	return model{
		keys:        DefaultKeyMap(),
		confirm:     opts.Config.UI.Confirm,
		pm:          opts.PM,
		st:          st,
		tasks:       mgr,
		spinner:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(ui.StyleAccent)),
		searchView:  sv,
		resultsView: results.New(),
		outputView:  output.New(),
		tasksView:   tasks.New(),
		commandView: command.New(),
	}
}

func (m model) Init() tea.Cmd {
	m.execute(task.GeneralInfo)
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	synced := m.sync()
	return m, tea.Batch(cmd, synced)
}

func (m model) update(msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layoutViews()
		return m, nil

	case TaskUpdateMsg:
		// sync redraws from the state.
		return m, nil

	case spinner.TickMsg:
		if !m.tasks.Busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case backend.InstallChangedMsg:
		slog.Debug("install tree changed", "path", msg.Path)
		if m.st.Locality() == backend.Local && strings.TrimSpace(m.st.Query()) != "" {
			m.execute(task.FilterPackages)
		}
		return m, nil

	case command.ExecuteMsg:
		return m.runRoute(msg.Route)

	case tea.KeyPressMsg:
		m.notice = notice{}
		if m.pending != nil {
			return m.handleConfirm(msg)
		}
		if m.commandView.Focused() {
			var cmd tea.Cmd
			m.commandView, cmd = m.commandView.Update(msg)
			if !m.commandView.Focused() && m.st.InputMode() == state.Normal {
				m.setNormal(m.st.Pane())
			}
			return m, cmd
		}
		if m.st.InputMode() == state.Insert {
			return m.handleInsertKey(msg)
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

func (m model) handleInsertKey(msg tea.KeyPressMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter", "tab":
		m.setNormal(state.PaneResults)
		return m, nil
	case "up", "ctrl+p":
		m.moveSelection(-1)
		return m, nil
	case "down", "ctrl+n":
		m.moveSelection(1)
		return m, nil
	}

	var (
		cmd     tea.Cmd
		changed bool
	)
	m.searchView, cmd, changed = m.searchView.Update(msg)
	if changed {
		m.st.SetQuery(m.searchView.Value())
		m.execute(task.FilterPackages)
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyPressMsg) (model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Insert):
		return m, m.setInsert()

	case key.Matches(msg, m.keys.Command):
		m.resultsView.Blur()
		m.tasksView.Blur()
		return m, m.commandView.Focus()

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.setNormal(state.PaneResults)
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		i := slices.Index(contentPanes, m.st.Pane())
		m.setNormal(contentPanes[(i+1)%len(contentPanes)])
		return m, nil

	case key.Matches(msg, m.keys.Locality):
		m.st.ToggleLocality()
		m.execute(task.FilterPackages)
		return m, nil

	case key.Matches(msg, m.keys.Doctor):
		m.execute(task.CheckHealth)
		return m, nil

	case key.Matches(msg, m.keys.Config):
		m.execute(task.Config)
		return m, nil

	case key.Matches(msg, m.keys.Clean):
		return m.requestMutation(task.Clean, "clean", "")

	case key.Matches(msg, m.keys.Install):
		return m.requestSelected(task.InstallPackage, "install")

	case key.Matches(msg, m.keys.Uninstall):
		return m.requestSelected(task.UninstallPackage, "uninstall")

	case key.Matches(msg, m.keys.Update):
		return m.requestSelected(task.UpdatePackage, "upgrade")

	case key.Matches(msg, m.keys.Tasks):
		m.setNormal(state.PaneTasks)
		return m, nil

	case key.Matches(msg, m.keys.Activity):
		m.setNormal(state.PaneActivity)
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.execute(task.FilterPackages, task.GeneralInfo)
		return m, nil
	}

	switch m.st.Pane() {
	case state.PaneSearch, state.PaneResults:
		switch {
		case key.Matches(msg, m.keys.Up):
			m.moveSelection(-1)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.moveSelection(1)
			return m, nil
		case key.Matches(msg, m.keys.Top):
			m.selectIndex(0)
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.selectIndex(len(m.st.Results()) - 1)
			return m, nil
		}
	}

	return m.updateActiveView(msg)
}

func (m model) handleConfirm(msg tea.KeyPressMsg) (model, tea.Cmd) {
	p := m.pending
	m.pending = nil
	switch msg.String() {
	case "y", "Y", "enter":
	case "ctrl+c":
		return m, tea.Quit
	default:
		return m, nil
	}
	if p.name != "" {
		if name, ok := m.st.SelectedResult(); !ok || name != p.name {
			m.notice = notice{text: fmt.Sprintf("selection changed, %s not started", p.verb), err: true}
			return m, nil
		}
	}
	m.execute(p.kind)
	m.setNormal(state.PaneActivity)
	return m, nil
}

func (m model) requestSelected(kind task.Kind, verb string) (model, tea.Cmd) {
	name, ok := m.st.SelectedResult()
	if !ok {
		return m, nil
	}
	return m.requestMutation(kind, verb, name)
}

// requestMutation runs kind, asking first when confirmations are on.
func (m model) requestMutation(kind task.Kind, verb, name string) (model, tea.Cmd) {
	if m.confirm {
		m.pending = &pendingAction{kind: kind, verb: verb, name: name}
		return m, nil
	}
	m.execute(kind)
	m.setNormal(state.PaneActivity)
	return m, nil
}

func (m model) runRoute(r command.Route) (model, tea.Cmd) {
	switch r.Action {
	case command.ActionSearch:
		m.searchView.SetValue(r.Arg)
		m.st.SetQuery(r.Arg)
		m.execute(task.FilterPackages)
		m.setNormal(state.PaneResults)

	case command.ActionInfo:
		m.focusPackage(r.Arg)
		m.requestInfo()
		m.setNormal(state.PaneResults)

	case command.ActionInstall:
		m.focusPackage(r.Arg)
		return m.requestMutation(task.InstallPackage, "install", r.Arg)

	case command.ActionUninstall:
		m.focusPackage(r.Arg)
		return m.requestMutation(task.UninstallPackage, "uninstall", r.Arg)

	case command.ActionUpdate:
		m.focusPackage(r.Arg)
		return m.requestMutation(task.UpdatePackage, "upgrade", r.Arg)

	case command.ActionDoctor:
		m.execute(task.CheckHealth)

	case command.ActionConfig:
		m.execute(task.Config)

	case command.ActionClean:
		return m.requestMutation(task.Clean, "clean", "")

	case command.ActionLocal, command.ActionRemote:
		l := backend.Remote
		if r.Action == command.ActionLocal {
			l = backend.Local
		}
		m.st.SetLocality(l)
		m.execute(task.FilterPackages)

	case command.ActionTasks:
		m.setNormal(state.PaneTasks)

	case command.ActionActivity:
		m.setNormal(state.PaneActivity)

	case command.ActionVersion:
		m.notice = notice{text: m.versionText()}

	case command.ActionHelp:
		m.showHelp = true

	case command.ActionQuit:
		return m, tea.Quit
	}
	return m, nil
}

// focusPackage makes name the selected result. A name missing from the
// current list replaces it, and any filter in flight is dropped so it
// cannot overwrite the selection.
func (m *model) focusPackage(name string) {
	if i := slices.Index(m.st.Results(), name); i >= 0 {
		m.st.Select(i)
		return
	}
	if err := m.tasks.Cancel(task.FilterPackages); err != nil {
		slog.Warn("cancel filter", "error", err)
	}
	m.searchView.SetValue(name)
	m.st.SetQuery(name)
	m.st.SetResults([]string{name})
}

// Selection changes are picked up by sync, which asks for the details.
func (m *model) moveSelection(delta int) { m.st.MoveSelection(delta) }
func (m *model) selectIndex(i int)       { m.st.Select(i) }

// requestInfo loads the details of the selected package.
func (m *model) requestInfo() {
	m.detailFor, _ = m.st.SelectedResult()
	m.execute(task.PackageInfo)
}

func (m *model) setInsert() tea.Cmd {
	m.st.SetInputMode(state.Insert)
	m.st.SetPane(state.PaneSearch)
	m.resultsView.Blur()
	m.tasksView.Blur()
	return m.searchView.Focus()
}

func (m *model) setNormal(p state.Pane) {
	m.st.SetInputMode(state.Normal)
	m.st.SetPane(p)
	m.searchView.Blur()
	m.resultsView.Blur()
	m.tasksView.Blur()
	switch p {
	case state.PaneResults:
		m.resultsView.Focus()
	case state.PaneTasks:
		m.tasksView.Focus()
	}
}

func (m *model) execute(kinds ...task.Kind) {
	for _, k := range kinds {
		if err := m.tasks.Execute(k); err != nil {
			slog.Warn("execute task", "kind", k.String(), "error", err)
		}
	}
}

// sync copies the shared state into the views. Details follow the selected
// name and are reloaded with every new list.
func (m *model) sync() tea.Cmd {
	res := m.st.Results()
	changed := m.resultsView.Sync(res, m.st.Selected(), m.st.Detail())
	if changed {
		m.commandView.SetPackageNames(res)
	}
	switch name, ok := m.st.SelectedResult(); {
	case !ok:
		m.detailFor = ""
	case changed || name != m.detailFor:
		m.requestInfo()
	}

	switch m.st.Pane() {
	case state.PaneHealth:
		m.outputView.Show("doctor", m.st.Health(), false)
	case state.PaneConfig:
		m.outputView.Show("config", m.st.Config(), false)
	case state.PaneActivity:
		m.outputView.Show("activity", m.st.Activity(), true)
	}
	m.tasksView.SetSlots(m.tasks.Snapshot())

	if m.st.InputMode() == state.Normal && m.searchView.Focused() {
		m.searchView.Blur()
	}

	if !m.spinning && m.tasks.Busy() {
		m.spinning = true
		return m.spinner.Tick
	}
	return nil
}

func (m model) updateActiveView(msg tea.Msg) (model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.st.Pane() {
	case state.PaneSearch, state.PaneResults:
		m.resultsView, cmd = m.resultsView.Update(msg)
	case state.PaneHealth, state.PaneConfig, state.PaneActivity:
		m.outputView, cmd = m.outputView.Update(msg)
	case state.PaneTasks:
		m.tasksView, cmd = m.tasksView.Update(msg)
	}
	return m, cmd
}

func (m model) View() tea.View {
	var v tea.View
	v.AltScreen = true

	if !m.ready {
		v.SetContent("Loading...")
		return v
	}

	if m.showHelp {
		v.SetContent(m.renderHelpOverlay())
		return v
	}

	var b strings.Builder

	// Header (2 lines: title + bar), then the search line.
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderSearchLine())
	b.WriteByte('\n')

	menuHeight := m.commandView.MenuHeight()
	contentHeight := m.height - 4 - menuHeight // header(2) + search(1) + bottom(1)
	if contentHeight < 5 {
		contentHeight = 5
	}
	m.resultsView.SetSize(m.width, contentHeight)
	m.outputView.SetSize(m.width, contentHeight)
	m.tasksView.SetSize(m.width, contentHeight)

	switch m.st.Pane() {
	case state.PaneHealth, state.PaneConfig, state.PaneActivity:
		b.WriteString(m.outputView.View())
	case state.PaneTasks:
		b.WriteString(m.tasksView.View())
	default:
		b.WriteString(m.resultsView.View())
	}

	b.WriteByte('\n')
	switch {
	case m.pending != nil:
		b.WriteString(m.renderConfirm())
	case m.commandView.Focused():
		b.WriteString(m.commandView.ViewInput())
	case m.notice.text != "":
		b.WriteString(m.renderNotice())
	default:
		b.WriteString(m.renderHelpLine())
	}

	v.SetContent(b.String())
	return v
}

func (m *model) renderHeader() string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s ", AppName))

	pm := ui.StyleAccent.Render(m.pm.Name())
	version := m.st.Version()
	if version == "" {
		version = "…"
	}
	versionStr := ui.StyleDim.Render(ui.Truncate(version, 40))

	var locality string
	if m.st.Locality() == backend.Local {
		locality = ui.StyleActive.Render("● " + backend.Local.String())
	} else {
		locality = ui.StyleWarn.Render("○ " + backend.Remote.String())
	}

	var busy string
	if m.tasks.Busy() {
		running := 0
		for _, s := range m.tasks.Snapshot() {
			if s.Running {
				running++
			}
		}
		busy = m.spinner.View() + ui.StyleDim.Render(fmt.Sprintf(" %d running", running))
	}

	sep := ui.StyleDim.Render("   ")
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		title, sep, pm, sep, versionStr, sep, locality, sep, busy,
	)

	bar := strings.Repeat("━", m.width)
	return header + "\n" + ui.StyleDim.Render(bar)
}

func (m *model) renderSearchLine() string {
	return ui.StyleMode.Render(m.st.InputMode().String()) + " " + m.searchView.View()
}

func (m *model) renderConfirm() string {
	p := m.pending
	q := p.verb
	if p.name != "" {
		q += " " + p.name
	}
	return ui.StyleWarn.Render(fmt.Sprintf(" %s? ", q)) + ui.StyleDim.Render("[y/N]")
}

func (m *model) renderHelpLine() string {
	k := m.keys
	var parts []string
	switch {
	case m.st.InputMode() == state.Insert:
		parts = []string{"type to search", "↑↓ select", "esc normal", "ctrl+c quit"}
	case m.st.Pane() == state.PaneTasks:
		parts = helpText(k.Up, k.Down, k.Tab, k.Back, k.Quit)
	case m.st.Pane() == state.PaneResults || m.st.Pane() == state.PaneSearch:
		parts = helpText(k.Insert, k.Install, k.Uninstall, k.Update, k.Locality, k.Doctor, k.Command, k.Help, k.Quit)
	default:
		parts = helpText(k.Up, k.Down, k.Tab, k.Back, k.Command, k.Quit)
	}
	return ui.StyleDim.Render(" " + strings.Join(parts, "  │  "))
}

func (m *model) renderHelpOverlay() string {
	title := ui.StyleHeader.Render(fmt.Sprintf(" %s help ", AppName))
	help := `
  Search
    i               Edit the query (INSERT mode)
    esc, enter      Back to NORMAL mode
    L               Toggle local / remote search

  Navigation
    ↑/↓, j/k        Move selection / scroll
    g / G           First / last result
    tab             Cycle results, doctor, config, activity, tasks
    t / a           Tasks / activity
    esc             Back to results
    q, ctrl+c       Quit

  Packages
    I               Install selected package
    D               Uninstall selected package
    u               Upgrade selected package
    C               Clean caches
    d               Run doctor
    c               Show config

  Command Line
    /               Open command line
    tab             Complete
    install <pkg>   Install, uninstall, update, info
    search <query>  Search
    local / remote  Switch search locality

  Other
    ctrl+l          Refresh
    ?               Toggle this help

  ` + ui.StyleDim.Render("Press any key to close")
	return title + "\n" + help
}

func (m *model) renderNotice() string {
	if m.notice.err {
		return ui.StyleError.Render(" " + m.notice.text)
	}
	return ui.StyleAccent.Render(" " + m.notice.text)
}

func (m *model) versionText() string {
	s := fmt.Sprintf("%s %s, %s (%s)", AppName, AppVersion, m.pm.Name(), m.pm.Alias())
	if v := m.st.Version(); v != "" {
		s += " " + v
	}
	return s
}

func (m *model) layoutViews() {
	viewHeight := m.height - 4
	if viewHeight < 5 {
		viewHeight = 5
	}
	m.searchView.SetSize(m.width)
	m.resultsView.SetSize(m.width, viewHeight)
	m.outputView.SetSize(m.width, viewHeight)
	m.tasksView.SetSize(m.width, viewHeight)
	m.commandView.SetWidth(m.width)
}
