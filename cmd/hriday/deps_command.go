package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check availability of required external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			statuses := deps.CheckBinaries(deps.For(cfg))
			if asJSON {
				return writeJSON(cmd, statuses)
			}

			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				available := "missing"
				if status.Available {
					available = "ok"
					if status.Version != "" {
						available = status.Version
					}
				}
				rows = append(rows, []string{status.Name, status.Command, available, status.Description})
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderTable(
				[]tableColumn{col("Name"), col("Command"), col("Status"), col("Purpose")}, rows))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required dependencies: %v", missing)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
