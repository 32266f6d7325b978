package services

import (
	"fmt"
	"strings"

	"github.com/ichooserx/rxsync-engine/pkg/apperrors"
	"github.com/ichooserx/rxsync-engine/pkg/models"
	"github.com/ichooserx/rxsync-engine/pkg/schema"
	"github.com/ichooserx/rxsync-engine/pkg/tabular"
)

// rowFields holds one source row's cells after reconciliation and trimming,
// before pharmacy resolution.
type rowFields struct {
	Pharmacy string // empty in fixed-pharmacy mode
	NDC      string
	Drug     string
	Stock    string
	Form     string
	Strength string
	Supplier string
}

// extractRow pulls the canonical fields out of a raw record and trims them.
func extractRow(record map[string]string, mapping schema.Mapping) rowFields {
	get := func(col schema.Column) string {
		return strings.TrimSpace(mapping.Value(record, col))
	}
	return rowFields{
		Pharmacy: get(schema.ColumnPharmacy),
		NDC:      get(schema.ColumnNDC),
		Drug:     get(schema.ColumnDrug),
		Stock:    get(schema.ColumnStock),
		Form:     get(schema.ColumnForm),
		Strength: get(schema.ColumnStrength),
		Supplier: get(schema.ColumnSupplier),
	}
}

// normalizeRow turns trimmed row fields into a canonical inventory record for
// the given pharmacy. NDC is required; optional fields take their defaults.
// Missing required fields return apperrors.ErrMissingRequiredField (row-level
// skip, not a file abort).
func normalizeRow(fields rowFields, pharmacyID int64) (*models.InventoryRecord, error) {
	if fields.NDC == "" {
		return nil, fmt.Errorf("%w: ndc", apperrors.ErrMissingRequiredField)
	}
	if pharmacyID == 0 {
		return nil, fmt.Errorf("%w: pharmacy", apperrors.ErrMissingRequiredField)
	}

	record := &models.InventoryRecord{
		PharmacyID:  pharmacyID,
		NDC:         fields.NDC,
		DrugName:    fields.Drug,
		StockStatus: fields.Stock,
		Form:        fields.Form,
		Strength:    fields.Strength,
		Supplier:    fields.Supplier,
	}
	if record.DrugName == "" {
		record.DrugName = models.DefaultDrugName
	}
	if record.StockStatus == "" {
		record.StockStatus = models.DefaultStockStatus
	}
	return record, nil
}

// dedupeRows collapses rows sharing a (Pharmacy, NDC) pair to the first
// occurrence, preserving source order. fallbackPharmacy stands in for files
// without a pharmacy column, where every row belongs to the same pharmacy.
// Bounds each distinct pair to one upsert attempt per file. Returns the kept
// rows and the number collapsed.
func dedupeRows(table *tabular.Table, mapping schema.Mapping, fallbackPharmacy string) ([]rowFields, int) {
	seen := make(map[string]bool, len(table.Rows))
	kept := make([]rowFields, 0, len(table.Rows))
	duplicates := 0

	for _, record := range table.Rows {
		fields := extractRow(record, mapping)

		// Rows without an NDC are not deduped; each one reaches the row loop
		// so its skip gets logged.
		if fields.NDC == "" {
			kept = append(kept, fields)
			continue
		}

		pharmacy := fields.Pharmacy
		if pharmacy == "" {
			pharmacy = fallbackPharmacy
		}
		key := pharmacy + "\x00" + fields.NDC

		if seen[key] {
			duplicates++
			continue
		}
		seen[key] = true
		kept = append(kept, fields)
	}
	return kept, duplicates
}
