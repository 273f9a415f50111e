// Package state holds the application state shared between the input loop,
// the render loop and task workers. Every field has its own lock; no method
// holds more than one at a time or blocks while holding one.
package state

import (
	"slices"
	"strings"

	"github.com/olivoil/wherehouse/internal/backend"
)

// InputMode is the modal editing state of the search input.
type InputMode int

const (
	Normal InputMode = iota
	Insert
)

func (m InputMode) String() string {
	if m == Insert {
		return "INSERT"
	}
	return "NORMAL"
}

// Pane is the region that currently owns focus or the output area.
type Pane int

const (
	PaneSearch Pane = iota
	PaneResults
	PaneHealth
	PaneConfig
	PaneActivity
	PaneTasks
)

var paneNames = [...]string{
	PaneSearch:   "search",
	PaneResults:  "results",
	PaneHealth:   "health",
	PaneConfig:   "config",
	PaneActivity: "activity",
	PaneTasks:    "tasks",
}

func (p Pane) String() string {
	if p < 0 || int(p) >= len(paneNames) {
		return "unknown"
	}
	return paneNames[p]
}

// State is safe for concurrent use. The zero value is not ready; use New.
type State struct {
	query    Field[string]
	locality Field[backend.Locality]
	results  Field[[]string]
	selected Field[int]
	detail   Field[string]
	health   Field[string]
	config   Field[string]
	version  Field[string]
	activity Field[[]string]
	pane     Field[Pane]
	mode     Field[InputMode]
}

// New returns the initial state: empty search in insert mode.
func New(locality backend.Locality) *State {
	s := &State{}
	s.locality.Set(locality)
	s.mode.Set(Insert)
	s.pane.Set(PaneSearch)
	return s
}

func (s *State) Query() string                  { return s.query.Get() }
func (s *State) SetQuery(q string)              { s.query.Set(q) }
func (s *State) Detail() string                 { return s.detail.Get() }
func (s *State) SetDetail(d string)             { s.detail.Set(d) }
func (s *State) Health() string                 { return s.health.Get() }
func (s *State) SetHealth(h string)             { s.health.Set(h) }
func (s *State) Config() string                 { return s.config.Get() }
func (s *State) SetConfig(c string)             { s.config.Set(c) }
func (s *State) Version() string                { return s.version.Get() }
func (s *State) SetVersion(v string)            { s.version.Set(v) }
func (s *State) Pane() Pane                     { return s.pane.Get() }
func (s *State) SetPane(p Pane)                 { s.pane.Set(p) }
func (s *State) InputMode() InputMode           { return s.mode.Get() }
func (s *State) SetInputMode(m InputMode)       { s.mode.Set(m) }
func (s *State) Locality() backend.Locality     { return s.locality.Get() }
func (s *State) SetLocality(l backend.Locality) { s.locality.Set(l) }

// ToggleLocality flips between local and remote and returns the new value.
func (s *State) ToggleLocality() backend.Locality {
	return s.locality.Update(func(l backend.Locality) backend.Locality { return l.Toggle() })
}

// MaxActivityLines bounds the activity log. The oldest lines go first.
const MaxActivityLines = 2000

// Activity returns the activity log, one line per entry.
func (s *State) Activity() string {
	return strings.Join(s.activity.Get(), "\n")
}

// SetActivity starts a new activity log holding a.
func (s *State) SetActivity(a string) {
	if a == "" {
		s.activity.Set(nil)
		return
	}
	s.activity.Set([]string{a})
}

// AppendActivity adds one line to the activity log. Stored lines are never
// rewritten, so slices handed out by Get stay valid while appends continue.
func (s *State) AppendActivity(line string) {
	s.activity.Update(func(lines []string) []string {
		if len(lines) >= MaxActivityLines {
			lines = lines[len(lines)-MaxActivityLines+1:]
		}
		return append(lines, line)
	})
}

// Results returns a copy of the current result list.
func (s *State) Results() []string {
	return slices.Clone(s.results.Get())
}

// SetResults publishes a new result list and moves the selection to the
// first entry.
func (s *State) SetResults(r []string) {
	s.results.Set(slices.Clone(r))
	s.selected.Set(0)
}

// Selected returns the selected index.
func (s *State) Selected() int { return s.selected.Get() }

// Select moves the selection to i, clamped to the current results.
func (s *State) Select(i int) int {
	n := len(s.results.Get())
	return s.selected.Update(func(int) int { return clamp(i, n) })
}

// MoveSelection moves the selection by delta, clamped to the current results.
func (s *State) MoveSelection(delta int) int {
	n := len(s.results.Get())
	return s.selected.Update(func(cur int) int { return clamp(cur+delta, n) })
}

// SelectedResult returns the selected package name, if any.
func (s *State) SelectedResult() (string, bool) {
	results := s.results.Get()
	i := s.selected.Get()
	if i < 0 || i >= len(results) {
		return "", false
	}
	return results[i], true
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
