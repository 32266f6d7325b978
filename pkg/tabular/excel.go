package tabular

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadExcel reads the first sheet of an .xlsx workbook into a Table. The
// first row is the header row.
func LoadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheets[0], path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty sheet, no header row", path)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = ""
			}
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}
