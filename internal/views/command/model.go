package command

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/textinput"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/wherehouse/internal/ui"
)

// ExecuteMsg carries a parsed command line to the parent.
type ExecuteMsg struct {
	Route Route
}

const menuRows = 10

// Model is the command line with its completion menu. A line that fails to
// parse stays in the input with the error shown above it.
type Model struct {
	input     textinput.Model
	completer *Completer
	menu      menu
	err       error
	width     int
	focused   bool
}

// New returns a blurred command line.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "install wget, doctor, local..."
	ti.CharLimit = 256

	return Model{
		input:     ti,
		completer: NewCompleter(),
		menu:      menu{cursor: -1},
	}
}

func (m *Model) SetWidth(w int) {
	m.width = w
	m.input.SetWidth(w - 4)
}

// SetPackageNames updates tab completion for package arguments.
func (m *Model) SetPackageNames(names []string) {
	m.completer.SetPackageNames(names)
}

// Focus opens the command line with every command listed.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	m.err = nil
	m.refresh()
	return m.input.Focus()
}

// Blur closes the command line and forgets what was typed.
func (m *Model) Blur() {
	m.focused = false
	m.err = nil
	m.menu.set(nil)
	m.input.SetValue("")
	m.input.Blur()
}

func (m *Model) Focused() bool { return m.focused }

// Err is the parse error of the last submitted line, if it is still shown.
func (m *Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch k.String() {
	case "esc":
		m.Blur()
		return m, nil
	case "up":
		if m.menu.move(-1) {
			return m, nil
		}
	case "down":
		if m.menu.move(1) {
			return m, nil
		}
	case "tab":
		if c, ok := m.menu.pick(true); ok {
			m.accept(c)
		}
		return m, nil
	case "enter":
		if c, ok := m.menu.pick(false); ok {
			m.accept(c)
			return m, nil
		}
		return m.submit()
	}

	m.err = nil
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	route, err := ParseRoute(line)
	if err != nil {
		m.err = err
		m.menu.set(nil)
		return m, nil
	}
	m.Blur()
	return m, func() tea.Msg { return ExecuteMsg{Route: route} }
}

// accept replaces the word under the cursor with c and moves on to the next
// word.
func (m *Model) accept(c Candidate) {
	val := m.input.Value()
	head := ""
	if i := strings.LastIndexByte(val, ' '); i >= 0 {
		head = val[:i+1]
	}
	m.input.SetValue(head + c.Value + " ")
	m.input.CursorEnd()
	m.refresh()
}

func (m *Model) refresh() {
	m.menu.set(m.completer.Complete(m.input.Value()))
}

// MenuHeight is the number of lines drawn above the input line.
func (m Model) MenuHeight() int {
	if !m.focused {
		return 0
	}
	h := 0
	if n := min(len(m.menu.items), menuRows); n > 0 {
		h += n + 2 // border
	}
	if m.err != nil {
		h++
	}
	return h
}

// ViewInput renders the menu, any parse error and the input line.
func (m Model) ViewInput() string {
	if !m.focused {
		return ""
	}
	var b strings.Builder
	if len(m.menu.items) > 0 {
		b.WriteString(m.renderMenu())
		b.WriteByte('\n')
	}
	if m.err != nil {
		b.WriteString(ui.StyleError.Render(" " + m.err.Error()))
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) renderMenu() string {
	shown := m.menu.items[:min(len(m.menu.items), menuRows)]
	w := 0
	for _, c := range shown {
		w = max(w, len(c.Value))
	}

	hl := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ui.T.Background)).
		Background(lipgloss.Color(ui.T.Accent))
	val := lipgloss.NewStyle().Foreground(ui.ColorWhite)
	desc := lipgloss.NewStyle().Foreground(ui.ColorDim)

	rows := make([]string, len(shown))
	for i, c := range shown {
		v := fmt.Sprintf("%-*s", w, c.Value)
		d := ""
		if c.Desc != "" {
			d = "  " + c.Desc
		}
		if i == m.menu.cursor {
			rows[i] = hl.Render(v + d)
		} else {
			rows[i] = val.Render(v) + desc.Render(d)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorBorder).
		Padding(0, 1).
		Width(max(m.width-4, 40)).
		Render(strings.Join(rows, "\n"))
}

// menu is the completion list. cursor is -1 while nothing is highlighted.
type menu struct {
	items  []Candidate
	cursor int
}

func (mu *menu) set(items []Candidate) {
	mu.items = items
	mu.cursor = -1
}

// move highlights the next or previous item, wrapping at either end. It
// reports false when there is nothing to move through.
func (mu *menu) move(delta int) bool {
	n := len(mu.items)
	if n == 0 {
		return false
	}
	switch {
	case mu.cursor < 0 && delta < 0:
		mu.cursor = n - 1
	default:
		mu.cursor = ((mu.cursor+delta)%n + n) % n
	}
	return true
}

// pick returns the highlighted item. With orFirst it falls back to the first
// item when nothing is highlighted.
func (mu *menu) pick(orFirst bool) (Candidate, bool) {
	switch {
	case mu.cursor >= 0 && mu.cursor < len(mu.items):
		return mu.items[mu.cursor], true
	case orFirst && len(mu.items) > 0:
		return mu.items[0], true
	}
	return Candidate{}, false
}
