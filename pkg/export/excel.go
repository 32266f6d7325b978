// Package export writes summary table data to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Summary"

// WriteXLSX writes row-oriented table data to an .xlsx workbook at path,
// one table row per sheet row.
func WriteXLSX(path string, rows [][]any) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// WriteXLSXTo streams the workbook to w instead of a file.
func WriteXLSXTo(w io.Writer, rows [][]any) error {
	f, err := buildWorkbook(rows)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func buildWorkbook(rows [][]any) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to compute cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	return f, nil
}
