package results

import (
	"slices"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/wherehouse/internal/ui"
)

const (
	previewWidthFrac = 0.55
	minPreviewWidth  = 30
)

// Model shows the result list with the selected package's details beside it.
// It renders what the shared state holds; selection changes go through the
// state, not the table cursor.
type Model struct {
	table   table.Model
	preview viewport.Model
	results []string
	width   int
	height  int
	focused bool

	detail string
}

// New creates a new results view model.
func New() Model {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "package", Width: 30},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(false),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles())

	vp := viewport.New(viewport.WithWidth(40), viewport.WithHeight(10))

	return Model{
		table:   t,
		preview: vp,
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorBorder)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ui.T.Accent)).
		Bold(true)
	return s
}

// RefreshStyles reapplies theme colors to the table.
func (m *Model) RefreshStyles() {
	m.table.SetStyles(tableStyles())
}

// Sync brings the view in line with the state. It reports whether the
// result list changed.
func (m *Model) Sync(results []string, selected int, detail string) bool {
	changed := !slices.Equal(results, m.results)
	if changed {
		m.results = results
		rows := make([]table.Row, len(results))
		for i, r := range results {
			rows[i] = table.Row{strconv.Itoa(i + 1), r}
		}
		m.table.SetRows(rows)
	}
	if len(results) > 0 {
		m.table.SetCursor(selected)
	}
	if changed || detail != m.detail {
		m.detail = detail
		m.preview.SetContent(m.renderPreview())
		m.preview.GotoTop()
	}
	return changed
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	previewW := m.previewWidth()
	tableW := w - previewW - 3

	m.table.SetWidth(tableW)
	m.table.SetHeight(h)
	m.preview.SetWidth(previewW)
	m.preview.SetHeight(h)

	nameW := tableW - 4 - 2
	if nameW < 10 {
		nameW = 10
	}
	cols := m.table.Columns()
	if len(cols) == 2 {
		cols[1].Width = nameW
		m.table.SetColumns(cols)
	}
}

// Selected returns the package under the cursor, if any.
func (m *Model) Selected() (string, bool) {
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(m.results) {
		return m.results[idx], true
	}
	return "", false
}

// Focus highlights the table.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes the highlight.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// Update scrolls the preview. Cursor keys are handled by the parent, which
// moves the selection in the shared state.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return m, cmd
}

// View renders the table and preview side by side.
func (m Model) View() string {
	var tableView string
	if len(m.results) == 0 {
		tableView = lipgloss.NewStyle().
			Width(m.width - m.previewWidth() - 3).
			Height(m.height).
			Render(ui.StyleDim.Render(" no results"))
	} else {
		tableView = m.table.View()
	}

	previewStyle := ui.StylePreviewBorder.
		Width(m.previewWidth()).
		Height(m.height)
	previewView := previewStyle.Render(m.preview.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, previewView)
}

func (m *Model) previewWidth() int {
	pw := int(float64(m.width) * previewWidthFrac)
	if pw < minPreviewWidth {
		pw = minPreviewWidth
	}
	return pw
}

func (m *Model) renderPreview() string {
	name, ok := m.Selected()
	if !ok {
		return ui.StyleDim.Render("Select a package to see its details")
	}
	if strings.TrimSpace(m.detail) == "" {
		return ui.StyleAccent.Render(name) + "\n\n" + ui.StyleDim.Render("(no details)")
	}
	return m.detail
}
