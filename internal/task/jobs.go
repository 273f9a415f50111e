package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/state"
)

// A job reads its inputs from the state, calls the backend, and returns the
// state write for its result. A failed job returns the write for the
// slot's default value alongside the error. A nil write leaves state alone.
type job struct {
	run      func(ctx context.Context, kind Kind, h *handle) (func(*state.State), error)
	fallback func(*state.State)
}

func (m *Manager) job(kind Kind) job {
	switch kind {
	case FilterPackages:
		return job{run: m.filterPackages, fallback: func(s *state.State) { s.SetResults(nil) }}
	case PackageInfo:
		return job{run: m.packageInfo, fallback: func(s *state.State) { s.SetDetail("") }}
	case CheckHealth:
		return job{run: m.checkHealth, fallback: func(s *state.State) { s.SetHealth("") }}
	case Config:
		return job{run: m.config, fallback: func(s *state.State) { s.SetConfig("") }}
	case GeneralInfo:
		return job{run: m.generalInfo, fallback: func(s *state.State) { s.SetVersion("") }}
	case InstallPackage:
		return m.mutation("install", "installed", m.pm.Install)
	case UninstallPackage:
		return m.mutation("uninstall", "uninstalled", m.pm.Uninstall)
	case UpdatePackage:
		return m.mutation("upgrade", "upgraded", m.pm.Update)
	case Clean:
		return job{run: m.clean, fallback: func(s *state.State) { s.AppendActivity("clean failed") }}
	}
	panic(fmt.Sprintf("no job for %s", kind))
}

func (m *Manager) filterPackages(ctx context.Context, _ Kind, _ *handle) (func(*state.State), error) {
	query := strings.TrimSpace(m.st.Query())
	if query == "" {
		return func(s *state.State) { s.SetResults(nil) }, nil
	}
	results, err := m.pm.FilterPackages(ctx, m.st.Locality(), query)
	if err != nil {
		results = nil
	}
	return func(s *state.State) { s.SetResults(results) }, err
}

func (m *Manager) packageInfo(ctx context.Context, _ Kind, _ *handle) (func(*state.State), error) {
	name, ok := m.st.SelectedResult()
	if !ok {
		return func(s *state.State) { s.SetDetail("") }, nil
	}
	info, err := m.pm.PackageInfo(ctx, name)
	if err != nil {
		info = ""
	}
	return func(s *state.State) { s.SetDetail(info) }, err
}

func (m *Manager) checkHealth(ctx context.Context, _ Kind, _ *handle) (func(*state.State), error) {
	out, err := m.pm.CheckHealth(ctx)
	if err != nil {
		out = ""
	}
	return func(s *state.State) {
		s.SetHealth(out)
		s.SetPane(state.PaneHealth)
	}, err
}

func (m *Manager) config(ctx context.Context, _ Kind, _ *handle) (func(*state.State), error) {
	out, err := m.pm.Config(ctx)
	if err != nil {
		out = ""
	}
	return func(s *state.State) {
		s.SetConfig(out)
		s.SetPane(state.PaneConfig)
	}, err
}

func (m *Manager) generalInfo(ctx context.Context, _ Kind, _ *handle) (func(*state.State), error) {
	v, err := m.pm.Version(ctx)
	if err != nil {
		v = ""
	}
	return func(s *state.State) { s.SetVersion(v) }, err
}

// streamer appends backend output lines to the activity log while h is the
// slot's newest run.
func (m *Manager) streamer(ctx context.Context, kind Kind, h *handle) backend.LineFunc {
	return func(line string) {
		m.commit(ctx, kind, h, func(s *state.State) { s.AppendActivity(line) })
	}
}

func (m *Manager) mutation(verb, done string, op func(context.Context, string, backend.LineFunc) error) job {
	run := func(ctx context.Context, kind Kind, h *handle) (func(*state.State), error) {
		name, ok := m.st.SelectedResult()
		if !ok {
			return nil, nil
		}
		m.commit(ctx, kind, h, func(s *state.State) {
			s.SetActivity(fmt.Sprintf("==> %s %s", verb, name))
			s.SetPane(state.PaneActivity)
		})

		err := op(ctx, name, m.streamer(ctx, kind, h))
		if err != nil {
			return func(s *state.State) {
				s.AppendActivity(fmt.Sprintf("%s %s failed: %v", verb, name, err))
			}, err
		}

		// The installed set changed; a local listing is now out of date.
		if kind != UpdatePackage && m.st.Locality() == backend.Local {
			if err := m.Execute(FilterPackages); err != nil {
				slog.DebugContext(ctx, "refresh after mutation", "error", err)
			}
		}
		return func(s *state.State) { s.AppendActivity(fmt.Sprintf("%s %s", done, name)) }, nil
	}
	return job{
		run:      run,
		fallback: func(s *state.State) { s.AppendActivity(verb + " failed") },
	}
}

func (m *Manager) clean(ctx context.Context, kind Kind, h *handle) (func(*state.State), error) {
	m.commit(ctx, kind, h, func(s *state.State) {
		s.SetActivity("==> clean")
		s.SetPane(state.PaneActivity)
	})
	if _, err := m.pm.Clean(ctx, m.streamer(ctx, kind, h)); err != nil {
		return func(s *state.State) { s.AppendActivity(fmt.Sprintf("clean failed: %v", err)) }, err
	}
	return func(s *state.State) { s.AppendActivity("clean finished") }, nil
}
