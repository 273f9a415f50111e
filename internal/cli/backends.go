package cli

import (
	"fmt"
	"runtime/debug"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olivoil/wherehouse/internal/app"
	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/state"
	"github.com/olivoil/wherehouse/internal/task"
)

type backendStatus struct {
	Alias     string `json:"alias" yaml:"alias"`
	Name      string `json:"name" yaml:"name"`
	Supported bool   `json:"supported" yaml:"supported"`
	Available bool   `json:"available" yaml:"available"`
	Selected  bool   `json:"selected" yaml:"selected"`
}

func backendsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List known package managers and which one is used",
		Long: `List every package manager wherehouse knows about, whether it has an
adapter, whether its binary is on PATH, and which one the current
configuration selects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			available := backend.Available()
			selected, selErr := rt.cfg.Backend()

			var list []backendStatus
			for _, b := range backend.All() {
				list = append(list, backendStatus{
					Alias:     b.Alias(),
					Name:      b.Name(),
					Supported: b.Supported(),
					Available: slices.Contains(available, b),
					Selected:  selErr == nil && b == selected,
				})
			}

			p := printer{w: cmd.OutOrStdout(), format: rt.flagFormat}
			if ok, err := p.structured(list); ok {
				return err
			}

			tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "  \tBACKEND\tNAME\tPATH\tADAPTER")
			for _, s := range list {
				mark := " "
				if s.Selected {
					mark = green("●")
				}
				path := red("missing")
				if s.Available {
					path = green("found")
				}
				adapter := faint("no")
				if s.Supported {
					adapter = "yes"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, s.Alias, s.Name, path, adapter)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if selErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), yellow(selErr.Error()))
			}
			return nil
		},
	}
}

type versionInfo struct {
	Version        string `json:"version" yaml:"version"`
	Go             string `json:"go,omitempty" yaml:"go,omitempty"`
	Commit         string `json:"commit,omitempty" yaml:"commit,omitempty"`
	Config         string `json:"config" yaml:"config"`
	Backend        string `json:"backend,omitempty" yaml:"backend,omitempty"`
	BackendVersion string `json:"backend_version,omitempty" yaml:"backend_version,omitempty"`
}

func versionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show wherehouse and package manager versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := versionInfo{
				Version: app.AppVersion,
				Config:  rt.configPath,
			}
			if info, ok := debug.ReadBuildInfo(); ok {
				v.Go = info.GoVersion
				for _, s := range info.Settings {
					if s.Key == "vcs.revision" {
						v.Commit = s.Value
					}
				}
			}

			// A missing backend still prints wherehouse's own version.
			st := state.New(rt.cfg.Locality())
			if err := rt.runTasks(cmd.Context(), st, task.GeneralInfo); err == nil {
				v.Backend = rt.pm.Alias()
				v.BackendVersion = st.Version()
			}

			p := printer{w: cmd.OutOrStdout(), format: rt.flagFormat}
			if ok, err := p.structured(v); ok {
				return err
			}
			fmt.Fprintf(p.w, "%s: %s\n", app.AppName, v.Version)
			if v.Go != "" {
				fmt.Fprintf(p.w, "go:         %s\n", v.Go)
			}
			if v.Commit != "" {
				fmt.Fprintf(p.w, "commit:     %s\n", v.Commit)
			}
			fmt.Fprintf(p.w, "config:     %s\n", v.Config)
			if v.Backend != "" {
				fmt.Fprintf(p.w, "%-11s %s\n", v.Backend+":", v.BackendVersion)
			}
			return nil
		},
	}
}
