// Package tabular loads CSV, Excel and JSON inventory drops into a uniform
// in-memory table of string cells keyed by header.
package tabular

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
)

// Table is one loaded file: ordered headers plus one map per row. Cell values
// are raw strings; missing cells are empty strings. Ephemeral, lives only for
// the duration of one file's processing.
type Table struct {
	Headers []string
	Rows    []map[string]string
}

// SupportedExtensions lists the file extensions the loader dispatches on.
var SupportedExtensions = []string{".csv", ".xlsx", ".json"}

// IsSupported reports whether path has an extension the loader handles.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// Load reads the file at path, dispatching on its extension. Unsupported
// extensions return apperrors.ErrUnsupportedFormat; the file is not touched
// beyond reading.
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".xlsx":
		return LoadExcel(path)
	case ".json":
		return LoadJSON(path)
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, filepath.Ext(path))
	}
}
