// Package backend adapts concrete package managers to the PackageManager
// capability set the task engine drives.
package backend

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/olivoil/wherehouse/internal/proc"
)

var (
	// ErrCancelled marks an operation whose context ended before the
	// underlying command exited. It carries no result.
	ErrCancelled = proc.ErrCancelled
	// ErrUnsupported is returned by New for a backend without an adapter.
	ErrUnsupported = errors.New("backend not supported")
	// ErrNoBackend is returned by Detect when no known package manager is on PATH.
	ErrNoBackend = errors.New("no supported package manager found on PATH")
)

// Locality selects the package set FilterPackages searches.
type Locality int

const (
	Remote Locality = iota
	Local
)

func (l Locality) String() string {
	if l == Local {
		return "LOCAL"
	}
	return "REMOTE"
}

// Toggle returns the other locality.
func (l Locality) Toggle() Locality {
	if l == Local {
		return Remote
	}
	return Local
}

// ParseLocality accepts "local" or "remote" in any case.
func ParseLocality(s string) (Locality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remote":
		return Remote, nil
	case "local":
		return Local, nil
	}
	return Remote, fmt.Errorf("unknown locality %q", s)
}

// LineFunc receives output lines from long-running mutations as they arrive.
type LineFunc func(line string)

// PackageManager is the capability set of a package manager. Every method
// blocks until the underlying command exits or ctx is done; in the latter
// case the child is killed and ErrCancelled is returned.
type PackageManager interface {
	// Name is the human readable name, e.g. "Homebrew".
	Name() string
	// Alias is the binary name, e.g. "brew".
	Alias() string

	FilterPackages(ctx context.Context, locality Locality, pattern string) ([]string, error)
	PackageInfo(ctx context.Context, name string) (string, error)
	CheckHealth(ctx context.Context) (string, error)
	Config(ctx context.Context) (string, error)
	Version(ctx context.Context) (string, error)

	Install(ctx context.Context, name string, lines LineFunc) error
	Update(ctx context.Context, name string, lines LineFunc) error
	Uninstall(ctx context.Context, name string, lines LineFunc) error
	Clean(ctx context.Context, lines LineFunc) (string, error)
}

// Backend enumerates the package managers wherehouse knows about.
type Backend int

const (
	Homebrew Backend = iota
	Pacman
	Yay
	Dnf
	Apt
	Winget
)

var backendInfo = [...]struct {
	alias string
	name  string
}{
	Homebrew: {"brew", "Homebrew"},
	Pacman:   {"pacman", "Pacman"},
	Yay:      {"yay", "Yet Another Yogurt"},
	Dnf:      {"dnf", "Dandified YUM"},
	Apt:      {"apt", "Advanced Package Tool"},
	Winget:   {"winget", "Windows Package Manager"},
}

// All lists every known backend in detection order.
func All() []Backend {
	return []Backend{Homebrew, Pacman, Yay, Dnf, Apt, Winget}
}

func (b Backend) Alias() string { return backendInfo[b].alias }
func (b Backend) Name() string  { return backendInfo[b].name }
func (b Backend) String() string {
	if b < 0 || int(b) >= len(backendInfo) {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return b.Alias()
}

// Supported reports whether New has an adapter for b.
func (b Backend) Supported() bool {
	return b == Homebrew || b == Apt
}

// ParseBackend maps a config or flag value to a Backend.
func ParseBackend(s string) (Backend, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "homebrew" {
		return Homebrew, nil
	}
	for _, b := range All() {
		if s == b.Alias() {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// Available returns the known backends whose binary is on PATH.
func Available() []Backend {
	var found []Backend
	for _, b := range All() {
		if _, err := exec.LookPath(b.Alias()); err == nil {
			found = append(found, b)
		}
	}
	return found
}

// Detect returns the first supported backend found on PATH.
func Detect() (Backend, error) {
	for _, b := range Available() {
		if b.Supported() {
			return b, nil
		}
	}
	return 0, ErrNoBackend
}

// Options tune how a backend invokes its binaries.
type Options struct {
	// Bin overrides the path of the main binary (brew, apt-get).
	Bin string
	// Sudo is prefixed to privileged apt commands. Empty runs them directly.
	Sudo []string
}

// New returns the adapter for b.
func New(b Backend, opts Options) (PackageManager, error) {
	switch b {
	case Homebrew:
		return NewBrewManager(opts), nil
	case Apt:
		return NewAptManager(opts), nil
	}
	return nil, fmt.Errorf("%s: %w", b.Name(), ErrUnsupported)
}
