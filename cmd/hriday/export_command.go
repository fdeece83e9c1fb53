package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/report"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and analyses to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				sessions, err := client.Sessions(cmd.Context())
				if err != nil {
					return err
				}

				results := make([]api.Results, 0)
				for _, sess := range sessions {
					if sess.State != "complete" || sess.RecordingID == "" {
						continue
					}
					stored, err := client.Results(cmd.Context(), sess.ID)
					if err != nil {
						// A completed session whose rows were purged upstream
						// still belongs on the sessions sheet.
						continue
					}
					results = append(results, stored)
				}

				target := outputPath
				if target == "" {
					target = fmt.Sprintf("hriday-report-%s.xlsx", time.Now().Format("20060102-150405"))
				}
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := report.WriteWorkbook(expanded, sessions, results); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d sessions and %d analyses to %s\n",
					len(sessions), len(results), expanded)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Workbook destination (default: timestamped file in the current directory)")
	return cmd
}
