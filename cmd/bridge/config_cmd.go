package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			metrics := cfg.Metrics.Addr
			if metrics == "" {
				metrics = "disabled"
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
				{"Listen", cfg.Addr()},
				{"Lock file", cfg.Server.LockPath},
				{"Target name", cfg.Target.Name},
				{"Target path", cfg.Target.Path},
				{"Process name", cfg.Target.ProcessName},
				{"Target args", strings.Join(cfg.Target.Args, " ")},
				{"Action timeout", cfg.ActionTimeout().String()},
				{"Dedupe triggers", yesNo(cfg.Target.Dedupe)},
				{"Log level", cfg.Logging.Level},
				{"Dev logging", yesNo(cfg.Logging.Development)},
				{"Rate limit", rateLimitSummary(cfg.RateLimit.Enabled, cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)},
				{"Metrics", metrics},
			}))
			return nil
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}

func rateLimitSummary(enabled bool, rps, burst int) string {
	if !enabled {
		return "disabled"
	}
	return strconv.Itoa(rps) + "/s, burst " + strconv.Itoa(burst)
}
