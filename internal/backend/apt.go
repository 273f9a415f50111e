package backend

import (
	"context"
	"os"
	"strings"

	"github.com/olivoil/wherehouse/internal/proc"
)

// AptManager drives apt on Debian-like systems. Queries run unprivileged;
// mutations go through Options.Sudo.
type AptManager struct {
	runner
	sudo []string
}

// NewAptManager returns an apt adapter. opts.Bin overrides apt-get. When
// opts.Sudo is nil and the process is not root, "sudo -n" is used so a
// missing credential fails fast instead of prompting on a terminal we own.
func NewAptManager(opts Options) *AptManager {
	bin := opts.Bin
	if bin == "" {
		bin = "apt-get"
	}
	sudo := opts.Sudo
	if sudo == nil && os.Geteuid() != 0 {
		sudo = []string{"sudo", "-n"}
	}
	return &AptManager{
		runner: runner{bin: bin, env: []string{"DEBIAN_FRONTEND=noninteractive"}},
		sudo:   sudo,
	}
}

func (a *AptManager) Name() string  { return Apt.Name() }
func (a *AptManager) Alias() string { return Apt.Alias() }

func (a *AptManager) FilterPackages(ctx context.Context, locality Locality, pattern string) ([]string, error) {
	if locality == Local {
		out, err := a.runBin(ctx, nil, "dpkg-query", "-W", "-f=${Package}\n")
		if err != nil {
			return nil, err
		}
		return filterLocal(pattern, splitLines(out.Stdout)), nil
	}

	out, err := a.runBin(ctx, nil, "apt-cache", "search", "--names-only", pattern)
	if err != nil {
		return nil, err
	}
	return parseAptSearch(out.Stdout), nil
}

func (a *AptManager) PackageInfo(ctx context.Context, name string) (string, error) {
	out, err := a.runBin(ctx, nil, "apt-cache", "show", name)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// CheckHealth simulates `apt-get check`, which verifies dependencies
// without taking the dpkg lock.
func (a *AptManager) CheckHealth(ctx context.Context) (string, error) {
	out, err := a.run(ctx, nil, "--simulate", "check")
	if err != nil {
		return "", err
	}
	return out.Stdout + out.Stderr, nil
}

func (a *AptManager) Config(ctx context.Context) (string, error) {
	out, err := a.runBin(ctx, nil, "apt-config", "dump")
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

func (a *AptManager) Version(ctx context.Context) (string, error) {
	out, err := a.runBin(ctx, nil, "apt", "--version")
	if err != nil {
		return "", err
	}
	if ls := splitLines(out.Stdout); len(ls) > 0 {
		return ls[0], nil
	}
	return "", nil
}

func (a *AptManager) Install(ctx context.Context, name string, lines LineFunc) error {
	_, err := a.privileged(ctx, lines, "install", "-y", name)
	return err
}

func (a *AptManager) Update(ctx context.Context, name string, lines LineFunc) error {
	_, err := a.privileged(ctx, lines, "install", "--only-upgrade", "-y", name)
	return err
}

func (a *AptManager) Uninstall(ctx context.Context, name string, lines LineFunc) error {
	_, err := a.privileged(ctx, lines, "remove", "-y", name)
	return err
}

func (a *AptManager) Clean(ctx context.Context, lines LineFunc) (string, error) {
	out, err := a.privileged(ctx, lines, "autoclean", "-y")
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

func (a *AptManager) privileged(ctx context.Context, lines LineFunc, args ...string) (proc.Output, error) {
	if len(a.sudo) == 0 {
		return a.run(ctx, lines, args...)
	}
	argv := append(append(append([]string(nil), a.sudo[1:]...), a.bin), args...)
	return a.runBin(ctx, lines, a.sudo[0], argv...)
}

// parseAptSearch keeps the package name of each "name - description" line.
func parseAptSearch(s string) []string {
	var names []string
	for _, l := range splitLines(s) {
		name, _, _ := strings.Cut(l, " - ")
		names = append(names, strings.TrimSpace(name))
	}
	return names
}
