package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	workbookSheet       = "Summary"
	workbookColumnWidth = 18
	failedRowColor      = "FF5900"
	passedRowColor      = "C6EFCE"
)

var workbookHeaders = []string{
	"Runner", "Result", "Exit Code", "Timed Out", "Duration (ms)", "Error", "Report",
}

// WriteSummaryWorkbook writes the combined summary as an .xlsx workbook with
// one row per runner; failed runners are highlighted.
func WriteSummaryWorkbook(path string, s *Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create workbook directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", workbookSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	lastCol, err := excelize.ColumnNumberToName(len(workbookHeaders))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(workbookSheet, "A", lastCol, workbookColumnWidth); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	for i, h := range workbookHeaders {
		ref, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(workbookSheet, ref, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	failedStyle, err := fillStyle(f, failedRowColor)
	if err != nil {
		return err
	}
	passedStyle, err := fillStyle(f, passedRowColor)
	if err != nil {
		return err
	}

	for i, o := range s.Outcomes {
		row := i + 2
		values := []interface{}{
			o.Runner,
			o.Result(),
			o.ExitCode,
			o.TimedOut,
			o.Duration.Milliseconds(),
			o.FirstError,
			o.ReportPath,
		}
		for col, v := range values {
			ref, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(workbookSheet, ref, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}

		style := passedStyle
		if !o.Passed {
			style = failedStyle
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		if err := f.SetCellStyle(workbookSheet, first, last, style); err != nil {
			return fmt.Errorf("style row %d: %w", row, err)
		}
	}

	footer := len(s.Outcomes) + 3
	totals := []string{
		fmt.Sprintf("Total runners: %d", s.Total()),
		fmt.Sprintf("Passed: %d", s.Passed()),
		fmt.Sprintf("Failed: %d", s.Failed()),
		fmt.Sprintf("Duration: %s", s.Duration().Round(time.Millisecond)),
	}
	for i, line := range totals {
		if err := f.SetCellValue(workbookSheet, fmt.Sprintf("A%d", footer+i), line); err != nil {
			return fmt.Errorf("write totals: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func fillStyle(f *excelize.File, color string) (int, error) {
	style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("create style: %w", err)
	}
	return style, nil
}
