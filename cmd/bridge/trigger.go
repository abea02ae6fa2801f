package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aegis-lab/bridge/internal/client"
)

func newTriggerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "trigger",
		Aliases: []string{"print"},
		Short:   "Focus or launch the target through a running bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := ctx.bridgeURL()
			if err != nil {
				return err
			}

			resp, err := client.New(url).Trigger(cmd.Context())
			if err != nil {
				return fmt.Errorf("bridge not reachable at %s: %w", url, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues([][2]string{
				{"Success", yesNo(resp.Success)},
				{"Message", resp.Message},
			}))
			if !resp.Success {
				return errors.New("trigger failed: " + resp.Message)
			}
			return nil
		},
	}
}
