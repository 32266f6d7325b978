package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadCSV reads a CSV file into a Table. Bytes are decoded as UTF-8 first;
// files that are not valid UTF-8 fall back to Latin-1 (ISO 8859-1), matching
// the exports some pharmacy systems still produce.
func LoadCSV(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	decoded, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	// Real-world drops have ragged rows and sloppy quoting; pad and truncate
	// against the header instead of failing the file.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headerRow, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty file, no header row", path)
		}
		return nil, fmt.Errorf("failed to read header row of %s: %w", path, err)
	}

	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

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

// decodeText strips a UTF-8 BOM and returns UTF-8 bytes, falling back to a
// Latin-1 decode when the input is not valid UTF-8.
func decodeText(data []byte) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return data, nil
	}

	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: utf-8 invalid and latin-1 fallback failed: %v", apperrors.ErrDecode, err)
	}
	return decoded, nil
}
