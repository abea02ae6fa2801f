package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegis-lab/bridge/internal/client"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that a bridge is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := ctx.bridgeURL()
			if err != nil {
				return err
			}

			status, err := client.New(url).Status(cmd.Context())
			if err != nil {
				return fmt.Errorf("bridge not reachable at %s: %w", url, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
				{"URL", url},
				{"Status", status.Status},
				{"Printer", status.Printer},
			}))
			return nil
		},
	}
}
