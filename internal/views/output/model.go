package output

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/viewport"

	"github.com/olivoil/wherehouse/internal/ui"
)

// Model is a scrollable pane for command output such as doctor, config and
// the activity log.
type Model struct {
	viewport viewport.Model
	title    string
	content  string
	follow   bool
	width    int
	height   int
}

// New creates a new output view model.
func New() Model {
	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(24))
	return Model{
		viewport: vp,
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.SetWidth(w - 2)
	m.viewport.SetHeight(h - 2)
}

// Show replaces the pane's content. With follow set the view sticks to the
// bottom while new output arrives, unless the user scrolled up.
func (m *Model) Show(title, content string, follow bool) {
	if title == m.title && content == m.content {
		return
	}
	sameTitle := title == m.title
	atBottom := m.viewport.AtBottom()

	m.title = title
	m.content = content
	m.follow = follow
	if strings.TrimSpace(content) == "" {
		m.viewport.SetContent(ui.StyleDim.Render("(no output)"))
	} else {
		m.viewport.SetContent(content)
	}

	switch {
	case follow && (!sameTitle || atBottom):
		m.viewport.GotoBottom()
	case !sameTitle:
		m.viewport.GotoTop()
	}
}

// Title returns the pane title.
func (m *Model) Title() string {
	return m.title
}

// Update handles scrolling.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the output pane.
func (m Model) View() string {
	header := ui.StyleAccent.Render(m.title) + "\n" +
		ui.StyleDim.Render(strings.Repeat("─", max(m.width-2, 0)))
	return header + "\n" + m.viewport.View()
}
