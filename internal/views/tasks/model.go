package tasks

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/bubbles/v2/table"
	"charm.land/bubbles/v2/viewport"
	"charm.land/lipgloss/v2"

	"github.com/olivoil/wherehouse/internal/task"
	"github.com/olivoil/wherehouse/internal/ui"
)

const (
	previewWidthFrac = 0.45
	minPreviewWidth  = 30
)

// Model lists the task slots and what each last did.
type Model struct {
	table   table.Model
	preview viewport.Model
	slots   []task.SlotStatus
	width   int
	height  int
	focused bool
}

// New creates a new tasks view model.
func New() Model {
	cols := []table.Column{
		{Title: " ", Width: 2},
		{Title: "slot", Width: 18},
		{Title: "gen", Width: 5},
		{Title: "started", Width: 9},
		{Title: "took", Width: 7},
		{Title: "result", Width: 10},
	}

	t := table.New(
		table.WithColumns(cols),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorBorder)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ui.T.SelectionForeground)).
		Background(ui.ColorAccent).
		Bold(true)
	t.SetStyles(s)

	vp := viewport.New(viewport.WithWidth(40), viewport.WithHeight(10))

	return Model{
		table:   t,
		preview: vp,
	}
}

// SetSlots updates the slot data.
func (m *Model) SetSlots(slots []task.SlotStatus) {
	m.slots = slots
	rows := make([]table.Row, len(slots))
	for i, s := range slots {
		status := s.Outcome.String()
		if s.Running {
			status = "running"
		}
		gen := ""
		if s.Generation > 0 {
			gen = fmt.Sprint(s.Generation)
		}
		rows[i] = table.Row{
			ui.StatusIcon(status),
			s.Kind.String(),
			gen,
			ui.FormatTime(s.Started),
			ui.FormatDuration(s.Duration),
			status,
		}
	}
	m.table.SetRows(rows)
	m.updatePreview()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h

	previewW := int(float64(w) * previewWidthFrac)
	if previewW < minPreviewWidth {
		previewW = minPreviewWidth
	}
	tableW := w - previewW - 3

	m.table.SetWidth(tableW)
	m.table.SetHeight(h)
	m.preview.SetWidth(previewW)
	m.preview.SetHeight(h)
}

// SelectedSlot returns the slot under the cursor, if any.
func (m *Model) SelectedSlot() *task.SlotStatus {
	idx := m.table.Cursor()
	if idx >= 0 && idx < len(m.slots) {
		return &m.slots[idx]
	}
	return nil
}

// Focus sets focus on the tasks table.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes focus from the tasks table.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// Update handles messages for the tasks view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	prev := m.table.Cursor()
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	if m.table.Cursor() != prev {
		m.updatePreview()
	}
	return m, cmd
}

// View renders the tasks view.
func (m Model) View() string {
	tableView := m.table.View()
	previewStyle := ui.StylePreviewBorder.Height(m.height)
	previewView := previewStyle.Render(m.preview.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, tableView, previewView)
}

func (m *Model) updatePreview() {
	s := m.SelectedSlot()
	if s == nil {
		m.preview.SetContent(ui.StyleDim.Render("No slot selected"))
		return
	}

	var b strings.Builder
	b.WriteString(ui.StyleAccent.Render("Slot:    ") + s.Kind.String() + "\n")
	if s.Generation == 0 {
		b.WriteString(ui.StyleDim.Render("(never run)"))
		m.preview.SetContent(b.String())
		return
	}
	b.WriteString(ui.StyleDim.Render("Run:     ") + s.RunID + "\n")
	b.WriteString(ui.StyleDim.Render("Issued:  ") + fmt.Sprintf("%d times", s.Generation) + "\n")
	b.WriteString(ui.StyleDim.Render("Started: ") + ui.FormatTime(s.Started) + "\n")
	if s.Running {
		b.WriteString(ui.StyleDim.Render("State:   ") + "running\n")
	} else {
		b.WriteString(ui.StyleDim.Render("State:   ") + s.Outcome.String() + "\n")
		if s.Duration > 0 {
			b.WriteString(ui.StyleDim.Render("Took:    ") + ui.FormatDuration(s.Duration) + "\n")
		}
	}
	if s.Err != nil {
		b.WriteString("\n" + ui.StyleError.Render(s.Err.Error()) + "\n")
	}

	m.preview.SetContent(b.String())
}
