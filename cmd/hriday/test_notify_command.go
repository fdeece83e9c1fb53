package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				resp, err := client.TestNotification(cmd.Context())
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Sent {
					fmt.Fprintf(stdout, "Notification not sent: %s\n", resp.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Test notification sent")
				return nil
			})
		},
	}
}
