package backend

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long the install tree must stay quiet before a
// change is reported.
const DefaultSettle = 500 * time.Millisecond

// InstallChangedMsg is sent when the package manager's install tree changed,
// i.e. something was installed or removed outside or inside wherehouse.
type InstallChangedMsg struct {
	// Path is the last path that changed before the tree settled.
	Path string
}

// Sender can receive messages (matches *tea.Program).
type Sender interface {
	Send(msg tea.Msg)
}

// Watcher monitors install directories via fsnotify and reports settled
// bursts of changes as a single InstallChangedMsg.
type Watcher struct {
	w      *fsnotify.Watcher
	sender Sender
	settle time.Duration
	done   chan struct{}
}

// InstallDirs returns the existing directories that change when b installs
// or removes a package.
func InstallDirs(b Backend) []string {
	var candidates []string
	switch b {
	case Homebrew:
		prefixes := []string{"/opt/homebrew", "/usr/local", "/home/linuxbrew/.linuxbrew"}
		if p := os.Getenv("HOMEBREW_PREFIX"); p != "" {
			prefixes = append([]string{p}, prefixes...)
		}
		for _, p := range prefixes {
			candidates = append(candidates, filepath.Join(p, "Cellar"), filepath.Join(p, "Caskroom"))
		}
	case Apt:
		candidates = []string{"/var/lib/dpkg"}
	}

	var dirs []string
	seen := map[string]bool{}
	for _, d := range candidates {
		if seen[d] {
			continue
		}
		seen[d] = true
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// NewWatcher watches dirs and reports to sender. settle <= 0 uses
// DefaultSettle.
func NewWatcher(dirs []string, sender Sender, settle time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			fw.Close()
			return nil, err
		}
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher := &Watcher{
		w:      fw,
		sender: sender,
		settle: settle,
		done:   make(chan struct{}),
	}
	go watcher.loop()
	return watcher, nil
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.w.Close()
	<-w.done
	return err
}

func (w *Watcher) loop() {
	defer close(w.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time
		last  string
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-w.w.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) {
				continue
			}
			last = event.Name
			if timer == nil {
				timer = time.NewTimer(w.settle)
			} else {
				timer.Reset(w.settle)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			slog.Debug("install tree changed", "path", last)
			w.sender.Send(InstallChangedMsg{Path: last})

		case err, ok := <-w.w.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}
