package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/state"
	"github.com/olivoil/wherehouse/internal/task"
)

// runTasks issues each kind on a fresh manager and waits for it, stopping at
// the first failure.
func (rt *runtime) runTasks(ctx context.Context, st *state.State, kinds ...task.Kind) error {
	pm, err := rt.packageManager()
	if err != nil {
		return err
	}
	mgr := task.New(pm, st, nil)
	defer mgr.Close()

	for _, k := range kinds {
		if err := mgr.Execute(k); err != nil {
			return err
		}
		if err := mgr.Wait(ctx, k); err != nil {
			return err
		}
		if err := mgr.Err(k); err != nil {
			return err
		}
	}
	return nil
}

type searchResult struct {
	Backend  string   `json:"backend" yaml:"backend"`
	Locality string   `json:"locality" yaml:"locality"`
	Query    string   `json:"query" yaml:"query"`
	Packages []string `json:"packages" yaml:"packages"`
}

func searchCmd(rt *runtime) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "search <pattern>",
		Short: "Search available or installed packages",
		Long: `Search the package manager for packages whose name matches pattern.

With --local only installed packages are searched, fuzzy-matched by name.

Examples:
  wherehouse search wget
  wherehouse search --local py --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locality := rt.cfg.Locality()
			if cmd.Flags().Changed("local") {
				locality = backend.Remote
				if local {
					locality = backend.Local
				}
			}

			st := state.New(locality)
			st.SetQuery(strings.Join(args, " "))
			if err := rt.runTasks(cmd.Context(), st, task.FilterPackages); err != nil {
				return err
			}

			res := searchResult{
				Backend:  rt.pm.Alias(),
				Locality: locality.String(),
				Query:    st.Query(),
				Packages: st.Results(),
			}
			if res.Packages == nil {
				res.Packages = []string{}
			}
			p := printer{w: cmd.OutOrStdout(), format: rt.flagFormat}
			if ok, err := p.structured(res); ok {
				return err
			}
			if len(res.Packages) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), faint(fmt.Sprintf("no %s packages match %q", strings.ToLower(res.Locality), res.Query)))
				return nil
			}
			for _, name := range res.Packages {
				fmt.Fprintln(p.w, name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&local, "local", "l", false, "search installed packages only")
	return cmd
}

type infoResult struct {
	Package string `json:"package" yaml:"package"`
	Info    string `json:"info" yaml:"info"`
}

func infoCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "info <package>",
		Short: "Show details for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := state.New(rt.cfg.Locality())
			st.SetResults([]string{args[0]})
			if err := rt.runTasks(cmd.Context(), st, task.PackageInfo); err != nil {
				return err
			}

			p := printer{w: cmd.OutOrStdout(), format: rt.flagFormat}
			if ok, err := p.structured(infoResult{Package: args[0], Info: st.Detail()}); ok {
				return err
			}
			fmt.Fprint(p.w, ensureNewline(st.Detail()))
			return nil
		},
	}
}

type outputResult struct {
	Backend string `json:"backend" yaml:"backend"`
	Output  string `json:"output" yaml:"output"`
}

func doctorCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the package manager for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runOutput(cmd, "doctor", task.CheckHealth, (*state.State).Health)
		},
	}
}

func configCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the package manager configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runOutput(cmd, "config", task.Config, (*state.State).Config)
		},
	}
}

// runOutput runs a single text-producing slot and prints what it wrote.
func (rt *runtime) runOutput(cmd *cobra.Command, title string, kind task.Kind, read func(*state.State) string) error {
	st := state.New(rt.cfg.Locality())
	if err := rt.runTasks(cmd.Context(), st, kind); err != nil {
		return err
	}

	out := read(st)
	p := printer{w: cmd.OutOrStdout(), format: rt.flagFormat}
	if ok, err := p.structured(outputResult{Backend: rt.pm.Alias(), Output: out}); ok {
		return err
	}
	p.heading(fmt.Sprintf("%s %s", rt.pm.Name(), title))
	fmt.Fprint(p.w, ensureNewline(out))
	return nil
}

func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
