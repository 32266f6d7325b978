package schema

// Column is one of the fixed canonical inventory fields.
type Column string

const (
	ColumnPharmacy Column = "Pharmacy"
	ColumnNDC      Column = "NDC"
	ColumnDrug     Column = "Drug"
	ColumnStock    Column = "Stock"
	ColumnForm     Column = "Form"
	ColumnStrength Column = "Strength"
	ColumnSupplier Column = "Supplier"
)

// ColumnOrder is the schema declaration order. Reconciliation iterates columns
// in this order, which makes tie-breaking between equal fuzzy scores
// deterministic: the first column considered wins.
var ColumnOrder = []Column{
	ColumnPharmacy,
	ColumnNDC,
	ColumnDrug,
	ColumnStock,
	ColumnForm,
	ColumnStrength,
	ColumnSupplier,
}

// SynonymTable maps each canonical column to the lowercase header spellings
// known to mean it. Read-only after initialization.
type SynonymTable map[Column][]string

// DefaultSynonyms is the process-wide synonym table. All entries are
// lowercase; headers are lowercased and trimmed before lookup.
var DefaultSynonyms = SynonymTable{
	ColumnPharmacy: {
		"pharmacy", "pharmacy name", "pharmacy_name", "store", "store name",
		"location", "site",
	},
	ColumnNDC: {
		"ndc", "ndc code", "ndc_code", "ndc number", "national drug code",
		"drug code", "drug_code", "product ndc", "product_ndc",
	},
	ColumnDrug: {
		"drug", "drug name", "drug_name", "medication", "medication name",
		"product", "product name",
	},
	ColumnStock: {
		"stock", "stock status", "stock_status", "availability",
		"inventory status", "in stock", "status",
	},
	ColumnForm: {
		"form", "dosage form", "dosage_form", "dose form",
	},
	ColumnStrength: {
		"strength", "dosage strength", "dose", "dosage", "concentration",
	},
	ColumnSupplier: {
		"supplier", "supplier name", "supplier_name", "vendor", "distributor",
		"wholesaler",
	},
}

// DefaultFuzzyThreshold is the minimum 0-100 similarity ratio a header must
// reach against some synonym before it is reconciled to that column.
const DefaultFuzzyThreshold = 80
