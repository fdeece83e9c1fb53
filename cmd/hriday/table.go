package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// tableColumn names one column of a CLI table. Numeric columns set numeric
// so ids, byte sizes, and counts line up on the right edge.
type tableColumn struct {
	name    string
	numeric bool
}

func col(name string) tableColumn    { return tableColumn{name: name} }
func numCol(name string) tableColumn { return tableColumn{name: name, numeric: true} }

// renderTable renders rows under the given columns in the rounded style
// used across the CLI. Short rows are padded with empty cells.
func renderTable(cols []tableColumn, rows [][]string) string {
	if len(cols) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.name
		align := text.AlignLeft
		if c.numeric {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(cols))
		for i := range cols {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	return tw.Render()
}
