package state_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/state"
)

func TestFieldUpdateIsAtomic(t *testing.T) {
	t.Parallel()
	var f state.Field[int]

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			for range 100 {
				f.Update(func(v int) int { return v + 1 })
			}
		})
	}
	wg.Wait()
	require.Equal(t, 5000, f.Get())
}

func TestNew(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Local)
	require.Equal(t, backend.Local, s.Locality())
	require.Equal(t, state.Insert, s.InputMode())
	require.Equal(t, state.PaneSearch, s.Pane())
	require.Empty(t, s.Results())

	_, ok := s.SelectedResult()
	require.False(t, ok)
}

func TestSetResultsResetsSelection(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Remote)
	s.SetResults([]string{"wget", "wget2", "wgetpaste"})
	require.Equal(t, 2, s.Select(2))

	s.SetResults([]string{"curl", "curlie"})
	require.Zero(t, s.Selected())
	name, ok := s.SelectedResult()
	require.True(t, ok)
	require.Equal(t, "curl", name)
}

func TestMoveSelectionClamps(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Remote)
	require.Zero(t, s.MoveSelection(1), "no results")

	s.SetResults([]string{"a", "b", "c"})
	require.Equal(t, 1, s.MoveSelection(1))
	require.Equal(t, 2, s.MoveSelection(5))
	require.Equal(t, 0, s.MoveSelection(-10))
	require.Equal(t, 2, s.Select(99))
}

func TestResultsReturnsCopy(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Remote)
	in := []string{"a", "b"}
	s.SetResults(in)
	in[0] = "mutated"

	out := s.Results()
	require.Equal(t, []string{"a", "b"}, out)
	out[1] = "mutated"
	require.Equal(t, []string{"a", "b"}, s.Results())
}

func TestActivityAndLocality(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Remote)
	s.AppendActivity("==> Fetching wget")
	s.AppendActivity("==> Pouring wget")
	require.Equal(t, "==> Fetching wget\n==> Pouring wget", s.Activity())

	require.Equal(t, backend.Local, s.ToggleLocality())
	require.Equal(t, backend.Remote, s.ToggleLocality())
}

func TestActivityKeepsNewestLines(t *testing.T) {
	t.Parallel()
	s := state.New(backend.Remote)
	s.SetActivity("==> install wget")
	before := s.Activity()

	total := state.MaxActivityLines + 500
	for i := range total {
		s.AppendActivity(fmt.Sprintf("line %d", i))
	}
	lines := strings.Split(s.Activity(), "\n")
	require.Len(t, lines, state.MaxActivityLines)
	require.Equal(t, fmt.Sprintf("line %d", total-state.MaxActivityLines), lines[0])
	require.Equal(t, fmt.Sprintf("line %d", total-1), lines[len(lines)-1])
	require.Equal(t, "==> install wget", before)

	s.SetActivity("==> clean")
	require.Equal(t, "==> clean", s.Activity())
	s.SetActivity("")
	require.Empty(t, s.Activity())
}

func TestNames(t *testing.T) {
	t.Parallel()
	require.Equal(t, "INSERT", state.Insert.String())
	require.Equal(t, "NORMAL", state.Normal.String())
	require.Equal(t, "health", state.PaneHealth.String())
}
