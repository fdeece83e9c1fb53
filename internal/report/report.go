// Package report renders capture sessions and their stored analyses into an
// xlsx workbook for sharing outside the tool.
package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
)

const (
	sessionsSheet    = "Sessions"
	predictionsSheet = "Predictions"
)

var sessionHeader = []any{
	"ID", "State", "Mode", "Title", "File", "Size (MB)", "Source",
	"Recording ID", "Error", "Created", "Updated",
}

var predictionHeader = []any{
	"Recording ID", "Risk Level", "Risk Score", "Average BPM", "Min BPM",
	"Max BPM", "Model", "Samples", "Insights",
}

// WriteWorkbook writes one sheet of sessions and one of analysis results to
// path. Results are keyed by recording id; sessions without stored analysis
// simply have no prediction row.
func WriteWorkbook(path string, sessions []api.Session, results []api.Results) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("workbook path is required")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", sessionsSheet); err != nil {
		return fmt.Errorf("rename sessions sheet: %w", err)
	}
	if err := writeRow(f, sessionsSheet, 1, sessionHeader); err != nil {
		return err
	}
	for i, sess := range sessions {
		row := []any{
			sess.ID,
			sess.State,
			sess.Mode,
			sess.Title,
			sess.FileName,
			sess.DisplaySizeMB,
			sess.Source,
			sess.RecordingID,
			sess.ErrorMessage,
			sess.CreatedAt,
			sess.UpdatedAt,
		}
		if err := writeRow(f, sessionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(predictionsSheet); err != nil {
		return fmt.Errorf("create predictions sheet: %w", err)
	}
	if err := writeRow(f, predictionsSheet, 1, predictionHeader); err != nil {
		return err
	}
	for i, result := range results {
		row := []any{
			result.RecordingID,
			result.RiskLevel,
			result.RiskScore,
			result.AverageBPM,
			result.MinBPM,
			result.MaxBPM,
			result.Model,
			len(result.Samples),
			strings.Join(result.Insights, "; "),
		}
		if err := writeRow(f, predictionsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return fmt.Errorf("cell name for %s row %d: %w", sheet, row, err)
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
