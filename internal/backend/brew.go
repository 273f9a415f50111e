package backend

import (
	"context"
	"strings"
)

// BrewManager drives Homebrew.
type BrewManager struct {
	runner
}

// NewBrewManager returns a Homebrew adapter. opts.Bin overrides the brew
// binary; it defaults to "brew" on PATH.
func NewBrewManager(opts Options) *BrewManager {
	bin := opts.Bin
	if bin == "" {
		bin = Homebrew.Alias()
	}
	return &BrewManager{runner: runner{
		bin: bin,
		env: []string{"HOMEBREW_NO_AUTO_UPDATE=1", "HOMEBREW_NO_ENV_HINTS=1"},
	}}
}

func (b *BrewManager) Name() string  { return Homebrew.Name() }
func (b *BrewManager) Alias() string { return Homebrew.Alias() }

// FilterPackages runs `brew search` for Remote and fuzzy-filters
// `brew list -1` for Local.
func (b *BrewManager) FilterPackages(ctx context.Context, locality Locality, pattern string) ([]string, error) {
	if locality == Local {
		out, err := b.run(ctx, nil, "list", "-1")
		if err != nil {
			return nil, err
		}
		return filterLocal(pattern, parseBrewList(out.Stdout)), nil
	}

	out, err := b.run(ctx, nil, "search", pattern)
	if err != nil {
		// brew exits 1 when nothing matches.
		if code, ok := exitCode(err); ok && code == 1 && strings.Contains(out.Stderr, "No formulae or casks found") {
			return nil, nil
		}
		return nil, err
	}
	return parseBrewList(out.Stdout), nil
}

func (b *BrewManager) PackageInfo(ctx context.Context, name string) (string, error) {
	out, err := b.run(ctx, nil, "info", name)
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// CheckHealth runs `brew doctor`. Doctor exits 1 when it has warnings,
// which are reported on stderr.
func (b *BrewManager) CheckHealth(ctx context.Context) (string, error) {
	out, err := b.run(ctx, nil, "doctor")
	if err != nil {
		if code, ok := exitCode(err); !ok || code != 1 {
			return "", err
		}
	}
	if strings.TrimSpace(out.Stderr) != "" {
		return out.Stderr, nil
	}
	return out.Stdout, nil
}

func (b *BrewManager) Config(ctx context.Context) (string, error) {
	out, err := b.run(ctx, nil, "config")
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// Version returns the first line of `brew --version`.
func (b *BrewManager) Version(ctx context.Context) (string, error) {
	out, err := b.run(ctx, nil, "--version")
	if err != nil {
		return "", err
	}
	if ls := splitLines(out.Stdout); len(ls) > 0 {
		return ls[0], nil
	}
	return "", nil
}

func (b *BrewManager) Install(ctx context.Context, name string, lines LineFunc) error {
	_, err := b.run(ctx, lines, "install", name)
	return err
}

func (b *BrewManager) Update(ctx context.Context, name string, lines LineFunc) error {
	_, err := b.run(ctx, lines, "upgrade", name)
	return err
}

func (b *BrewManager) Uninstall(ctx context.Context, name string, lines LineFunc) error {
	_, err := b.run(ctx, lines, "uninstall", name)
	return err
}

func (b *BrewManager) Clean(ctx context.Context, lines LineFunc) (string, error) {
	out, err := b.run(ctx, lines, "cleanup")
	if err != nil {
		return "", err
	}
	return out.Stdout, nil
}

// parseBrewList keeps package names, dropping section headers such as
// "==> Formulae" and blank lines.
func parseBrewList(s string) []string {
	var names []string
	for _, l := range splitLines(s) {
		if strings.HasPrefix(l, "==>") {
			continue
		}
		names = append(names, l)
	}
	return names
}
