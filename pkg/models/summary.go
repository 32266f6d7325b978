package models

import "math"

// DrugVariant is one product variant returned by the summary API.
type DrugVariant struct {
	BrandName        string `json:"brand_name"`
	ManufacturerName string `json:"manufacturer_name"`
	ProductNDC       string `json:"product_ndc"`
}

// DrugSummary aggregates the summary API's per-drug result counts.
type DrugSummary struct {
	DrugName          string        `json:"drug_name"`
	AlignmentScore    float64       `json:"alignment_score"`
	ManufacturerCount int           `json:"manufacturer_count"`
	FilteredCount     int           `json:"filtered_count"`
	TotalCount        int           `json:"total_count"`
	Variants          []DrugVariant `json:"variants"`
}

// AlignmentScore maps the filtered/total ratio onto a 0-10 scale, rounded to
// one decimal place. A zero total scores zero.
func AlignmentScore(filtered, total int) float64 {
	if total == 0 {
		return 0.0
	}
	score := float64(filtered) / float64(total) * 10
	return math.Round(score*10) / 10
}

// SummaryExport is the export-ready view of a summary request: a JSON payload
// for API consumers plus row-oriented table data for spreadsheet export.
type SummaryExport struct {
	CreatedAt   string            `json:"created_at"`
	FiltersUsed []string          `json:"filters_used"`
	JSONData    []DrugSummaryJSON `json:"json_data"`
	TableData   [][]any           `json:"table_data"`
}

// DrugSummaryJSON is the per-drug entry of the JSON summary payload.
type DrugSummaryJSON struct {
	DrugName         string         `json:"drug_name"`
	TotalResults     int            `json:"total_results"`
	FilteredResults  int            `json:"filtered_results"`
	AlignmentScore   float64        `json:"alignment_score"`
	TopManufacturers map[string]int `json:"top_manufacturers"`
}

// CountManufacturers tallies variants per manufacturer, ignoring variants
// with no manufacturer name.
func CountManufacturers(variants []DrugVariant) map[string]int {
	counts := make(map[string]int)
	for _, v := range variants {
		if v.ManufacturerName == "" {
			continue
		}
		counts[v.ManufacturerName]++
	}
	return counts
}
