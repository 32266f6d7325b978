package tabular

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
)

// LoadJSON reads a JSON array of flat objects into a Table. Headers are the
// union of object keys in first-seen order; non-string scalar values are
// stringified the way a spreadsheet cell would hold them.
func LoadJSON(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	table := &Table{}
	seen := make(map[string]bool)

	for _, obj := range objects {
		// Map iteration order is random; sort each object's keys so the
		// header order is stable across runs.
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		record := make(map[string]string, len(obj))
		for _, key := range keys {
			if !seen[key] {
				seen[key] = true
				table.Headers = append(table.Headers, key)
			}
			record[key] = stringifyCell(obj[key])
		}
		table.Rows = append(table.Rows, record)
	}

	// Rows missing keys other objects carry get empty cells.
	for _, record := range table.Rows {
		for _, h := range table.Headers {
			if _, ok := record[h]; !ok {
				record[h] = ""
			}
		}
	}

	return table, nil
}

func stringifyCell(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		// Integral JSON numbers render without a decimal point.
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
