package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var states []string
	var asJSON bool
	var clearCompleted bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()

				if clearCompleted {
					removed, err := client.ClearCompleted(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(stdout, "Cleared %d completed sessions\n", removed)
					return nil
				}

				sessions, err := client.Sessions(cmd.Context(), states...)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.SessionListResponse{Sessions: sessions})
				}
				if len(sessions) == 0 {
					fmt.Fprintln(stdout, "No sessions")
					return nil
				}
				fmt.Fprintln(stdout, renderTable(sessionTableColumns, sessionRows(sessions)))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (unselected, recording, uploading, reviewing, processing, complete)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&clearCompleted, "clear-completed", false, "Remove completed sessions instead of listing")
	return cmd
}

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var showSamples bool

	cmd := &cobra.Command{
		Use:   "results [SESSION_ID]",
		Short: "Show the stored heart-rate analysis for a session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()

				var id int64
				if len(args) == 1 {
					parsed, err := parseSessionID(args[0])
					if err != nil {
						return err
					}
					id = parsed
				} else {
					sess, err := client.ActiveSession(cmd.Context())
					if err != nil {
						return err
					}
					id = sess.ID
				}

				results, err := client.Results(cmd.Context(), id)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, api.ResultsResponse{Results: results})
				}

				fmt.Fprintf(stdout, "Recording:   %s\n", results.RecordingID)
				fmt.Fprintf(stdout, "Risk level:  %s (score %.2f)\n", results.RiskLevel, results.RiskScore)
				fmt.Fprintf(stdout, "Heart rate:  avg %.1f bpm (min %.1f, max %.1f)\n",
					results.AverageBPM, results.MinBPM, results.MaxBPM)
				if results.Model != "" {
					fmt.Fprintf(stdout, "Model:       %s\n", results.Model)
				}
				for _, insight := range results.Insights {
					fmt.Fprintf(stdout, "  - %s\n", insight)
				}
				if showSamples && len(results.Samples) > 0 {
					rows := make([][]string, 0, len(results.Samples))
					for _, sample := range results.Samples {
						rows = append(rows, []string{sample.Timestamp, fmt.Sprintf("%.1f", sample.BPM)})
					}
					fmt.Fprintln(stdout, renderTable([]tableColumn{col("Timestamp"), numCol("BPM")}, rows))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	cmd.Flags().BoolVar(&showSamples, "samples", false, "Include the full heart-rate series")
	return cmd
}

func parseSessionID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", arg)
	}
	return id, nil
}
