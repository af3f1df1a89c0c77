// Package export renders a processed result as an XLSX workbook for
// download. Unprocessed results are not exportable; callers must check the
// status first.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/medreport-ai/simplifier/internal/report"
)

const sheet = "Results"

// BuildWorkbook returns XLSX bytes with one row per test, followed by the
// summary and the per-test explanations.
func BuildWorkbook(res report.PipelineResult, logger *slog.Logger) ([]byte, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Test", "Value", "Unit", "Status", "Ref Low", "Ref High"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	row := 2
	for _, t := range res.Tests {
		write(1, row, t.Name)
		write(2, row, t.Value)
		write(3, row, t.Unit)
		write(4, row, string(t.Status))
		write(5, row, t.RefRange.Low)
		write(6, row, t.RefRange.High)
		row++
	}

	// Summary block below the table, one blank row in between.
	row++
	write(1, row, "Summary")
	write(2, row, res.Summary)
	row++
	for _, ex := range res.Explanations {
		write(1, row, ex.TestName)
		write(2, row, ex.Text)
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 28) // test name
	_ = f.SetColWidth(sheet, "B", "B", 60) // value / summary text
	_ = f.SetColWidth(sheet, "C", "D", 12)
	_ = f.SetColWidth(sheet, "E", "F", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	logger.Info("export.xlsx.ok",
		"tests", len(res.Tests),
		"explanations", len(res.Explanations),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
