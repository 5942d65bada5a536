// netspeed: network speed monitor for panels, terminals and scripts.
// Author: vesaa | License: MIT | https://github.com/vesaa/netspeed
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vesaa/netspeed/internal/agent"
	"github.com/vesaa/netspeed/internal/collector"
	"github.com/vesaa/netspeed/internal/config"
	"github.com/vesaa/netspeed/internal/models"
	"github.com/vesaa/netspeed/internal/server"
	"github.com/vesaa/netspeed/internal/store"
	"github.com/vesaa/netspeed/internal/ui"
)

const version = "v0.1.0"

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	statePath  string
	source     string
	netDevPath string
	debug      bool
	log        *zap.SugaredLogger
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	g := &globals{}

	monitorOpts := &monitorFlags{}
	root := &cobra.Command{
		Use:   "netspeed",
		Short: "netspeed: aggregate network throughput for panels and terminals",
		Long: `netspeed samples the kernel interface counters, ignores loopback and virtual
devices, and prints the host's throughput in one of five display modes.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.log = newLogger(g.debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = g.log.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, g, monitorOpts, out)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&g.configPath, "config", "", "Config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&g.statePath, "state", "", "State database holding the reset baseline (default "+store.DefaultPath()+")")
	root.PersistentFlags().StringVar(&g.source, "source", collector.SourceAuto, "Counter source: auto, proc or psutil")
	root.PersistentFlags().StringVar(&g.netDevPath, "net-dev", collector.ProcNetDev, "Kernel interface table read by the proc source")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "Verbose logging to stderr")

	// ── monitor subcommand ────────────────────────────────────────────────────
	monitorCmd := &cobra.Command{
		Use:   "monitor",
		Short: "Start continuous network speed monitoring",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, g, monitorOpts, out)
		},
	}
	monitorOpts.register(monitorCmd)
	// the root command monitors too, so it takes the same flags
	root.Flags().AddFlagSet(monitorCmd.Flags())

	// ── stop subcommand ───────────────────────────────────────────────────────
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop monitoring (if running)",
		Run: func(cmd *cobra.Command, args []string) {
			// monitoring runs in the foreground and stops with Ctrl+C
			fmt.Fprintln(out, "Monitoring is not running.")
		},
	}

	// ── modes subcommand ──────────────────────────────────────────────────────
	modesCmd := &cobra.Command{
		Use:   "modes",
		Short: "List all available display modes",
		Run: func(cmd *cobra.Command, args []string) {
			current := config.Open(g.configPath, g.log).Mode()
			fmt.Fprintln(out, "Available display modes:")
			for _, m := range models.AllModes() {
				mark := ""
				if m == current {
					mark = " (current)"
				}
				fmt.Fprintf(out, "  %d: %s%s\n", m, m.Description(), mark)
			}
		},
	}

	// ── config subcommand ─────────────────────────────────────────────────────
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or set configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, g, out)
		},
	}
	configCmd.Flags().BoolP("show", "s", false, "Show current configuration")
	configCmd.Flags().IntP("mode", "m", 0, "Set display mode (0-4)")
	configCmd.Flags().IntP("font-mode", "f", 0, "Set font mode (0-4)")
	configCmd.Flags().IntP("interval", "i", 0, "Set refresh interval (1-60)")

	// ── reset subcommand ──────────────────────────────────────────────────────
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset total download counter",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			st, err := store.Open(g.statePath, g.log)
			if err != nil {
				return fmt.Errorf("opening state: %w", err)
			}
			defer func() { err = multierr.Append(err, st.Close()) }()

			mon, _, err := newMonitor(g, st)
			if err != nil {
				return err
			}
			if _, err := mon.ResetTotal(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Total download counter reset.")
			return nil
		},
	}

	// ── watch subcommand ──────────────────────────────────────────────────────
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Interactive terminal widget (click or press m/f/r, q to quit)",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			st := openStateOrWarn(g)
			if st != nil {
				defer func() { err = multierr.Append(err, st.Close()) }()
			}
			mon, cfg, err := newMonitor(g, st)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return ui.RunTUI(ctx, mon, seconds(cfg.RefreshInterval()))
		},
	}

	// ── serve subcommand ──────────────────────────────────────────────────────
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve readings over HTTP for panel widgets",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			listen, _ := cmd.Flags().GetString("listen")
			token, _ := cmd.Flags().GetString("token")

			st := openStateOrWarn(g)
			if st != nil {
				defer func() { err = multierr.Append(err, st.Close()) }()
			}
			mon, cfg, err := newMonitor(g, st)
			if err != nil {
				return err
			}

			srv := server.New(server.Options{Monitor: mon, Config: cfg, Token: token, Logger: g.log})
			fmt.Fprintf(out, "  ✓ Widget page → http://%s/\n", listen)
			fmt.Fprintf(out, "  ✓ Refresh interval: %ds\n\n", cfg.RefreshInterval())

			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return srv.Run(ctx, listen, seconds(cfg.RefreshInterval()))
		},
	}
	serveCmd.Flags().String("listen", "127.0.0.1:7373", "HTTP listen address")
	serveCmd.Flags().String("token", "", "Pre-shared token required on /api routes")

	// ── version subcommand ────────────────────────────────────────────────────
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print netspeed version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(out, "netspeed %s  |  Author: vesaa\n", version)
		},
	}

	root.AddCommand(monitorCmd, stopCmd, modesCmd, configCmd, resetCmd, watchCmd, serveCmd, versionCmd)
	return root
}

type monitorFlags struct {
	mode        int
	interval    int
	once        bool
	noTimestamp bool
}

func (f *monitorFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.mode, "mode", "m", 0, "Display mode (0-4), this session only")
	cmd.Flags().IntVarP(&f.interval, "interval", "i", 0, "Refresh interval in seconds")
	cmd.Flags().BoolVarP(&f.once, "once", "o", false, "Show speed once and exit")
	cmd.Flags().BoolVar(&f.noTimestamp, "no-timestamp", false, "Print bare display strings")
}

func runMonitor(cmd *cobra.Command, g *globals, f *monitorFlags, out io.Writer) (err error) {
	st := openStateOrWarn(g)
	if st != nil {
		defer func() { err = multierr.Append(err, st.Close()) }()
	}
	mon, cfg, err := newMonitor(g, st)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("mode") {
		if err := mon.SetMode(models.DisplayMode(f.mode)); err != nil {
			return err
		}
	}
	interval := cfg.RefreshInterval()
	if cmd.Flags().Changed("interval") {
		if f.interval <= 0 {
			return fmt.Errorf("invalid interval %d, must be positive", f.interval)
		}
		interval = f.interval
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()
	emit := agent.LinePrinter(out, !f.noTimestamp)

	if f.once {
		emit(mon.Once(ctx, seconds(interval)))
		return nil
	}

	fmt.Fprintln(out, "Starting network speed monitoring...")
	fmt.Fprintf(out, "Mode: %s\n", mon.Mode().Description())
	fmt.Fprintf(out, "Refresh interval: %d seconds\n", interval)
	fmt.Fprint(out, "Press Ctrl+C to stop\n\n")

	if err := mon.Run(ctx, seconds(interval), emit); err != nil {
		return err
	}
	fmt.Fprintln(out, "\nMonitoring stopped.")
	return nil
}

func runConfig(cmd *cobra.Command, g *globals, out io.Writer) error {
	cfg := config.Open(g.configPath, g.log)
	flags := cmd.Flags()
	show, _ := flags.GetBool("show")
	if show || !(flags.Changed("mode") || flags.Changed("font-mode") || flags.Changed("interval")) {
		c := cfg.Config()
		fmt.Fprintln(out, "Current configuration:")
		fmt.Fprintf(out, "  Mode: %d (%s)\n", c.Mode, c.Mode.Description())
		fmt.Fprintf(out, "  Font Mode: %d\n", c.FontMode)
		fmt.Fprintf(out, "  Refresh Interval: %d seconds\n", c.RefreshInterval)
		fmt.Fprintf(out, "  Config File: %s\n", cfg.Path())
		return nil
	}

	// every requested field is attempted; failures are reported together
	var errs error
	report := func(err error, ok func()) {
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		ok()
	}

	if flags.Changed("mode") {
		m, _ := flags.GetInt("mode")
		report(cfg.SetMode(models.DisplayMode(m)), func() {
			fmt.Fprintf(out, "Mode set to: %d (%s)\n", m, models.DisplayMode(m).Description())
		})
	}
	if flags.Changed("font-mode") {
		f, _ := flags.GetInt("font-mode")
		report(cfg.SetFontMode(f), func() { fmt.Fprintf(out, "Font mode set to: %d\n", f) })
	}
	if flags.Changed("interval") {
		i, _ := flags.GetInt("interval")
		report(cfg.SetRefreshInterval(i), func() { fmt.Fprintf(out, "Refresh interval set to: %d seconds\n", i) })
	}
	return errs
}

// newMonitor wires the config store, the counter source and an optional
// baseline store into a Monitor.
func newMonitor(g *globals, st *store.Store) (*agent.Monitor, *config.Store, error) {
	cfg := config.Open(g.configPath, g.log)
	src, err := collector.NewSource(g.source, g.netDevPath)
	if err != nil {
		return nil, nil, err
	}
	opts := agent.Options{Source: src, Settings: cfg, Logger: g.log}
	if st != nil {
		opts.Baselines = st
	}
	return agent.New(opts), cfg, nil
}

// openStateOrWarn opens the baseline database. Without it the cumulative
// total still works, it just is not shared with other processes.
func openStateOrWarn(g *globals) *store.Store {
	st, err := store.Open(g.statePath, g.log)
	if err != nil {
		g.log.Warnw("state database unavailable, reset baseline will not persist", "error", err)
		return nil
	}
	return st
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(quit)
		cancel()
	}
}

func newLogger(debug bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }
