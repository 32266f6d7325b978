package schema

import "strings"

// Mapping is the result of reconciling one file's headers: original header to
// canonical column, for the headers that reconciled. Headers absent from the
// mapping passed through unrecognized.
type Mapping map[string]Column

// Reconcile maps each source header to a canonical column using exact synonym
// lookup first, then fuzzy matching. A header reconciles fuzzily only when its
// best-scoring synonym reaches threshold; ties between columns resolve to the
// earliest column in ColumnOrder. Pure function of its inputs.
func Reconcile(headers []string, table SynonymTable, threshold int) Mapping {
	mapping := make(Mapping, len(headers))
	for _, header := range headers {
		if col, ok := matchHeader(header, table, threshold); ok {
			mapping[header] = col
		}
	}
	return mapping
}

// HeaderFor returns the original header reconciled to col. When several
// headers reconciled to the same column, the lexicographically smallest wins
// so repeated runs over the same file agree.
func (m Mapping) HeaderFor(col Column) (string, bool) {
	best := ""
	found := false
	for header, c := range m {
		if c != col {
			continue
		}
		if !found || header < best {
			best = header
			found = true
		}
	}
	return best, found
}

// Value extracts the field for col from a raw record keyed by original
// headers. Returns "" when the column did not reconcile or the cell is empty.
func (m Mapping) Value(record map[string]string, col Column) string {
	header, ok := m.HeaderFor(col)
	if !ok {
		return ""
	}
	return record[header]
}

// Has reports whether any source header reconciled to col.
func (m Mapping) Has(col Column) bool {
	_, ok := m.HeaderFor(col)
	return ok
}

func matchHeader(header string, table SynonymTable, threshold int) (Column, bool) {
	needle := strings.ToLower(strings.TrimSpace(header))
	if needle == "" {
		return "", false
	}

	// Exact synonym lookup, case-insensitive.
	for _, col := range ColumnOrder {
		for _, syn := range table[col] {
			if needle == syn {
				return col, true
			}
		}
	}

	// Fuzzy: best synonym of any column; first column in order wins ties.
	bestScore := 0
	var bestCol Column
	for _, col := range ColumnOrder {
		for _, syn := range table[col] {
			if score := Ratio(needle, syn); score > bestScore {
				bestScore = score
				bestCol = col
			}
		}
	}
	if bestScore >= threshold {
		return bestCol, true
	}
	return "", false
}
