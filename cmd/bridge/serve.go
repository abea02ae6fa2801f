package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aegis-lab/bridge/internal/infrastructure/config"
	"github.com/aegis-lab/bridge/internal/infrastructure/logging"
	"github.com/aegis-lab/bridge/internal/infrastructure/server"
)

type serveFlags struct {
	host        string
	port        int
	target      string
	name        string
	processName string
	logLevel    string
	dev         bool
	metricsAddr string
}

func newServeCommand(ctx *commandContext) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyServeFlags(cmd, cfg, flags); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			srv, err := server.NewServer(cfg, server.WithReadyHook(func(addr net.Addr) {
				fmt.Fprintf(out, "Aegis Bridge running on http://%s\n", addr)
				fmt.Fprintf(out, "Target: %s (%s)\n", cfg.Target.Name, cfg.Target.Path)
			}))
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runErr := srv.Run(runCtx)
			_ = srv.Close()
			if runErr != nil {
				return runErr
			}

			fmt.Fprintln(out, "Bridge Closed.")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.host, "host", "", "Listen host (overrides BRIDGE_HOST)")
	f.IntVarP(&flags.port, "port", "p", 0, "Listen port (overrides BRIDGE_PORT)")
	f.StringVarP(&flags.target, "target", "t", "", "Executable to launch (overrides BRIDGE_TARGET_PATH)")
	f.StringVar(&flags.name, "name", "", "Target name reported by /status (overrides BRIDGE_TARGET_NAME)")
	f.StringVar(&flags.processName, "process", "", "Process name to look for (derived from --target when empty)")
	f.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.BoolVar(&flags.dev, "dev", false, "Development logging (colored console, debug level)")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve prometheus /metrics on this address")
	return cmd
}

// applyServeFlags layers explicitly set flags over the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config, flags serveFlags) error {
	f := cmd.Flags()
	if f.Changed("host") {
		cfg.Server.Host = flags.host
	}
	if f.Changed("port") {
		cfg.Server.Port = flags.port
	}
	if f.Changed("target") {
		// Re-derive the process name unless it was configured explicitly.
		if cfg.Target.ProcessName == config.ProcessNameFromPath(cfg.Target.Path) {
			cfg.Target.ProcessName = config.ProcessNameFromPath(flags.target)
		}
		cfg.Target.Path = flags.target
	}
	if f.Changed("name") {
		cfg.Target.Name = flags.name
	}
	if f.Changed("process") {
		cfg.Target.ProcessName = flags.processName
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = flags.metricsAddr
	}

	switch {
	case f.Changed("dev"):
		cfg.Logging.Development = flags.dev
	case os.Getenv("LOG_DEV") == "" && logging.IsTerminal():
		cfg.Logging.Development = true
	}
	if cfg.Logging.Development && !f.Changed("log-level") && os.Getenv("LOG_LEVEL") == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg.Validate()
}
