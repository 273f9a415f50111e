// Package cli wires the cobra command tree: the TUI as the default command
// and headless commands that drive the same task slots.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/olivoil/wherehouse/internal/app"
	"github.com/olivoil/wherehouse/internal/backend"
	"github.com/olivoil/wherehouse/internal/config"
	"github.com/olivoil/wherehouse/internal/log"
)

// runtime carries what PersistentPreRunE resolved for the command that runs.
type runtime struct {
	flagConfig  string
	flagBackend string
	flagFormat  string
	flagVerbose bool

	configPath string
	cfg        config.Config
	logFile    io.Closer

	pm      backend.PackageManager
	backend backend.Backend
}

// Execute runs the command line with ctx and returns the first error.
func Execute(ctx context.Context) error {
	rt := &runtime{}
	defer rt.close()
	return newRootCmd(rt).ExecuteContext(ctx)
}

func newRootCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     app.AppName,
		Short:   "Terminal UI for your system package manager",
		Version: app.AppVersion,
		Long: `wherehouse searches, inspects, installs and removes packages through the
package manager found on this system (Homebrew or apt).

Run without a command to open the interactive UI.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.init,
		RunE:              rt.runTUI,
	}

	cmd.PersistentFlags().StringVar(&rt.flagConfig, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&rt.flagBackend, "backend", "", "package manager to use: auto, brew or apt")
	cmd.PersistentFlags().StringVar(&rt.flagFormat, "format", formatText, "output format: text, json or yaml")
	cmd.PersistentFlags().BoolVarP(&rt.flagVerbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(searchCmd(rt))
	cmd.AddCommand(infoCmd(rt))
	cmd.AddCommand(doctorCmd(rt))
	cmd.AddCommand(configCmd(rt))
	cmd.AddCommand(backendsCmd(rt))
	cmd.AddCommand(versionCmd(rt))

	return cmd
}

// init loads the config, applies flag overrides and sets up logging.
func (rt *runtime) init(cmd *cobra.Command, _ []string) error {
	if err := checkFormat(rt.flagFormat); err != nil {
		return err
	}

	rt.configPath = rt.flagConfig
	if rt.configPath == "" {
		rt.configPath = config.DefaultPath()
	}
	cfg, err := config.Load(config.ExpandHome(rt.configPath))
	if err != nil {
		return err
	}

	// flags have a precedence over the config file
	if rt.flagBackend != "" {
		cfg.General.Backend = rt.flagBackend
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("--backend: %w", err)
		}
	}
	if rt.flagVerbose {
		cfg.General.Verbose = true
	}
	rt.cfg = cfg

	// The TUI owns the terminal, so it logs to a file.
	var w io.Writer = cmd.ErrOrStderr()
	if cmd == cmd.Root() {
		f, err := log.OpenFile(cfg.LogPath())
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		rt.logFile = f
		w = f
	}
	slog.SetDefault(log.New(w, cfg.General.Verbose))

	slog.DebugContext(cmd.Context(), "config loaded",
		"path", rt.configPath,
		"backend", cfg.General.Backend,
		"command", cmd.Name(),
	)
	return nil
}

// packageManager resolves and builds the configured backend once.
func (rt *runtime) packageManager() (backend.PackageManager, error) {
	if rt.pm != nil {
		return rt.pm, nil
	}
	b, err := rt.cfg.Backend()
	if err != nil {
		return nil, err
	}
	pm, err := backend.New(b, rt.cfg.BackendOptions())
	if err != nil {
		return nil, err
	}
	rt.backend = b
	rt.pm = pm
	return pm, nil
}

func (rt *runtime) runTUI(cmd *cobra.Command, _ []string) error {
	pm, err := rt.packageManager()
	if err != nil {
		return err
	}
	ctx := log.ContextAttrs(cmd.Context(),
		slog.Group("wherehouse",
			slog.String("cmd", "tui"),
			slog.Int("pid", os.Getpid()),
		),
	)
	slog.InfoContext(ctx, "starting", "backend", pm.Alias(), "version", app.AppVersion)
	return app.Run(ctx, app.Options{
		Backend: rt.backend,
		PM:      pm,
		Config:  rt.cfg,
	})
}

func (rt *runtime) close() {
	if rt.logFile != nil {
		_ = rt.logFile.Close()
		rt.logFile = nil
	}
}
