// Package task runs package manager operations off the UI goroutine.
//
// A Manager owns one slot per Kind. Execute starts a worker for a slot and
// cancels whatever the slot was running before, without waiting for it.
// Each Execute bumps the slot's generation; a worker only writes its result
// into the shared state while its generation is still the slot's newest, so
// the state always reflects the most recently issued request.
package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/log"
	"github.com/olivoil/wherehouse/internal/state"
)

var (
	ErrClosed      = errors.New("task manager closed")
	ErrUnknownKind = errors.New("unknown task kind")
)

// Notifier is told that a worker of kind changed the state or finished.
// It is called from worker goroutines.
type Notifier func(kind Kind)

type handle struct {
	cancel  context.CancelFunc
	done    chan struct{}
	gen     uint64
	runID   string
	started time.Time
}

func (h *handle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

type slot struct {
	mu      sync.Mutex
	gen     uint64
	current *handle

	outcome  Outcome
	err      error
	duration time.Duration
}

// SlotStatus describes a slot for display.
type SlotStatus struct {
	Kind       Kind
	Running    bool
	Generation uint64
	RunID      string
	Started    time.Time
	Duration   time.Duration
	Outcome    Outcome
	Err        error
}

type Manager struct {
	pm     backend.PackageManager
	st     *state.State
	notify Notifier

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup

	slots map[Kind]*slot
}

// New returns a Manager driving pm and publishing into st. notify may be nil.
func New(pm backend.PackageManager, st *state.State, notify Notifier) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		pm:     pm,
		st:     st,
		notify: notify,
		ctx:    ctx,
		cancel: cancel,
		slots:  make(map[Kind]*slot, len(kindNames)),
	}
	for _, k := range Kinds() {
		m.slots[k] = &slot{}
	}
	return m
}

// Execute starts a worker for kind, signalling the slot's previous worker to
// stop. It never waits for a worker.
func (m *Manager) Execute(kind Kind) error {
	s, ok := m.slots[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithCancel(m.ctx)
	h := &handle{
		cancel:  cancel,
		done:    make(chan struct{}),
		runID:   uuid.NewString(),
		started: time.Now(),
	}

	s.mu.Lock()
	prev := s.current
	if prev != nil {
		prev.cancel()
	}
	s.gen++
	h.gen = s.gen
	s.current = h
	s.outcome = Pending
	s.err = nil
	s.mu.Unlock()

	ctx = log.ContextAttrs(ctx,
		slog.String("kind", kind.String()),
		slog.String("run_id", h.runID),
		slog.Uint64("generation", h.gen),
	)
	slog.DebugContext(ctx, "task issued", "superseded", prev != nil && !prev.finished())

	m.wg.Add(1)
	go m.run(ctx, kind, h)
	return nil
}

// Cancel signals kind's current worker to stop. Nothing it produces after
// this call reaches the state.
func (m *Manager) Cancel(kind Kind) error {
	s, ok := m.slots[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.cancel()
	}
	return nil
}

// Running reports whether kind's current worker is still running.
func (m *Manager) Running(kind Kind) bool {
	s, ok := m.slots[kind]
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && !s.current.finished()
}

// Busy reports whether any slot is running.
func (m *Manager) Busy() bool {
	for _, k := range Kinds() {
		if m.Running(k) {
			return true
		}
	}
	return false
}

// Wait blocks until kind has no running current worker, following
// supersessions that happen while waiting.
func (m *Manager) Wait(ctx context.Context, kind Kind) error {
	s, ok := m.slots[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	for {
		s.mu.Lock()
		h := s.current
		s.mu.Unlock()
		if h == nil || h.finished() {
			if m.current(kind, h) {
				return nil
			}
			continue
		}
		select {
		case <-h.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Err returns the error of kind's last finished current run, if it failed.
func (m *Manager) Err(kind Kind) error {
	s, ok := m.slots[kind]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(kind))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Snapshot returns the status of every slot in Kind order.
func (m *Manager) Snapshot() []SlotStatus {
	out := make([]SlotStatus, 0, len(m.slots))
	for _, k := range Kinds() {
		s := m.slots[k]
		s.mu.Lock()
		st := SlotStatus{
			Kind:       k,
			Generation: s.gen,
			Duration:   s.duration,
			Outcome:    s.outcome,
			Err:        s.err,
		}
		if h := s.current; h != nil {
			st.Running = !h.finished()
			st.RunID = h.runID
			st.Started = h.started
		}
		s.mu.Unlock()
		out = append(out, st)
	}
	return out
}

// Close cancels every worker and waits for all of them to return. Execute
// fails with ErrClosed afterwards.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) current(kind Kind, h *handle) bool {
	s := m.slots[kind]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current == h
}

// commit applies write if h is still kind's newest run and has not been
// cancelled.
func (m *Manager) commit(ctx context.Context, kind Kind, h *handle, write func(*state.State)) bool {
	s := m.slots[kind]
	s.mu.Lock()
	ok := s.gen == h.gen && ctx.Err() == nil
	if ok {
		write(m.st)
	}
	s.mu.Unlock()

	if !ok {
		slog.DebugContext(ctx, "discarding stale result")
		return false
	}
	m.notifyKind(kind)
	return true
}

func (m *Manager) finish(ctx context.Context, kind Kind, h *handle, outcome Outcome, err error) {
	s := m.slots[kind]
	s.mu.Lock()
	if s.gen == h.gen {
		s.outcome = outcome
		s.err = err
		s.duration = time.Since(h.started)
	}
	s.mu.Unlock()

	slog.DebugContext(ctx, "task finished", "outcome", outcome.String(), "duration", time.Since(h.started))
	m.notifyKind(kind)
}

func (m *Manager) notifyKind(kind Kind) {
	if m.notify != nil {
		m.notify(kind)
	}
}

func (m *Manager) run(ctx context.Context, kind Kind, h *handle) {
	defer m.wg.Done()
	defer close(h.done)
	defer h.cancel()

	j := m.job(kind)
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "task panicked", "panic", r)
			m.commit(ctx, kind, h, j.fallback)
			m.finish(ctx, kind, h, Failed, fmt.Errorf("%s panicked: %v", kind, r))
		}
	}()

	write, err := j.run(ctx, kind, h)
	switch {
	case errors.Is(err, backend.ErrCancelled) || ctx.Err() != nil:
		m.finish(ctx, kind, h, Cancelled, nil)
		return
	case err != nil:
		slog.WarnContext(ctx, "task failed", "error", err)
	}
	if write != nil {
		m.commit(ctx, kind, h, write)
	}
	if err != nil {
		m.finish(ctx, kind, h, Failed, err)
		return
	}
	m.finish(ctx, kind, h, Succeeded, nil)
}
