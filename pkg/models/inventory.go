package models

import "time"

// InventoryRecord is the canonical inventory row keyed by (pharmacy_id, ndc).
// At most one record exists per key; the pipeline creates it on first sighting
// and mutates the five descriptive fields on later sightings, never deletes.
type InventoryRecord struct {
	ID          int64     `json:"id"`
	PharmacyID  int64     `json:"pharmacy_id"`
	NDC         string    `json:"ndc"`
	DrugName    string    `json:"drug_name"`
	StockStatus string    `json:"stock_status"`
	Form        string    `json:"form"`
	Strength    string    `json:"strength"`
	Supplier    string    `json:"supplier"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Defaults applied by the row normalizer when a source column is absent.
const (
	DefaultDrugName    = "Unknown Drug"
	DefaultStockStatus = "Unknown"
)

// UpsertResult reports what the upsert engine did with one record.
type UpsertResult int

const (
	// UpsertInserted means no row existed for the key and one was created.
	UpsertInserted UpsertResult = iota
	// UpsertUpdated means an existing row differed and was rewritten.
	UpsertUpdated
	// UpsertUnchanged means the existing row already matched; no write happened.
	UpsertUnchanged
)

// String returns the lowercase name used in logs and reports.
func (r UpsertResult) String() string {
	switch r {
	case UpsertInserted:
		return "inserted"
	case UpsertUpdated:
		return "updated"
	case UpsertUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// FieldsDiffer reports whether the five mutable descriptive fields of two
// records differ. NULL and empty string are treated as equivalent: the store
// may hold NULLs from older writers while the normalizer always produces "".
func FieldsDiffer(existing, incoming *InventoryRecord) bool {
	return existing.DrugName != incoming.DrugName ||
		existing.StockStatus != incoming.StockStatus ||
		existing.Form != incoming.Form ||
		existing.Strength != incoming.Strength ||
		existing.Supplier != incoming.Supplier
}
