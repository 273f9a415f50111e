package search

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/textinput"

	"github.com/olivoil/wherehouse/internal/ui"
)

// Model is the search query input.
type Model struct {
	input textinput.Model
	width int
}

// New creates a new search input.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "search: "
	ti.Placeholder = "type a package name..."
	ti.CharLimit = 128
	return Model{input: ti}
}

// SetSize updates the input width.
func (m *Model) SetSize(w int) {
	m.width = w
	m.input.SetWidth(w - len(m.input.Prompt) - 2)
}

// Focus starts capturing keys.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur stops capturing keys.
func (m *Model) Blur() {
	m.input.Blur()
}

// Focused reports whether the input captures keys.
func (m *Model) Focused() bool {
	return m.input.Focused()
}

// Value returns the current query text.
func (m *Model) Value() string {
	return m.input.Value()
}

// SetValue replaces the query text.
func (m *Model) SetValue(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

// Update passes a key to the input. It reports whether the query changed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd, bool) {
	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd, m.input.Value() != prev
}

// View renders the input line.
func (m Model) View() string {
	if !m.input.Focused() && m.input.Value() == "" {
		return ui.StyleDim.Render(m.input.Prompt + "press i to search")
	}
	return m.input.View()
}
