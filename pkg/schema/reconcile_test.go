package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileExactSynonyms(t *testing.T) {
	headers := []string{"Pharmacy", "NDC Code", "Drug Name", "stock_status"}

	mapping := Reconcile(headers, DefaultSynonyms, DefaultFuzzyThreshold)

	assert.Equal(t, ColumnPharmacy, mapping["Pharmacy"])
	assert.Equal(t, ColumnNDC, mapping["NDC Code"])
	assert.Equal(t, ColumnDrug, mapping["Drug Name"])
	assert.Equal(t, ColumnStock, mapping["stock_status"])
}

func TestReconcileFuzzy(t *testing.T) {
	// "pharmcy" is a typo one edit away from the "pharmacy" synonym.
	mapping := Reconcile([]string{"pharmcy"}, DefaultSynonyms, DefaultFuzzyThreshold)

	require.Contains(t, mapping, "pharmcy")
	assert.Equal(t, ColumnPharmacy, mapping["pharmcy"])
}

func TestReconcileUnderscoreSynonym(t *testing.T) {
	mapping := Reconcile([]string{"pharmacy_name"}, DefaultSynonyms, DefaultFuzzyThreshold)

	require.Contains(t, mapping, "pharmacy_name")
	assert.Equal(t, ColumnPharmacy, mapping["pharmacy_name"])
}

func TestReconcileBelowThresholdPassesThrough(t *testing.T) {
	mapping := Reconcile([]string{"xyz_field", "internal_id"}, DefaultSynonyms, DefaultFuzzyThreshold)

	assert.NotContains(t, mapping, "xyz_field")
	assert.NotContains(t, mapping, "internal_id")
}

func TestReconcileTrimsAndLowercases(t *testing.T) {
	mapping := Reconcile([]string{"  NDC  ", "PHARMACY"}, DefaultSynonyms, DefaultFuzzyThreshold)

	assert.Equal(t, ColumnNDC, mapping["  NDC  "])
	assert.Equal(t, ColumnPharmacy, mapping["PHARMACY"])
}

func TestReconcileTieBreaksInColumnOrder(t *testing.T) {
	// Both columns carry a synonym equally distant from the header; the
	// column earlier in ColumnOrder must win.
	table := SynonymTable{
		ColumnForm:     {"formx"},
		ColumnStrength: {"formy"},
	}

	mapping := Reconcile([]string{"formz"}, table, 80)

	require.Contains(t, mapping, "formz")
	assert.Equal(t, ColumnForm, mapping["formz"])
}

func TestReconcileEmptyHeaderIgnored(t *testing.T) {
	mapping := Reconcile([]string{"", "   "}, DefaultSynonyms, DefaultFuzzyThreshold)
	assert.Empty(t, mapping)
}

func TestMappingValueAndHas(t *testing.T) {
	mapping := Reconcile([]string{"ndc", "Drug"}, DefaultSynonyms, DefaultFuzzyThreshold)
	record := map[string]string{"ndc": "123-456", "Drug": "Aspirin"}

	assert.True(t, mapping.Has(ColumnNDC))
	assert.False(t, mapping.Has(ColumnSupplier))
	assert.Equal(t, "123-456", mapping.Value(record, ColumnNDC))
	assert.Equal(t, "Aspirin", mapping.Value(record, ColumnDrug))
	assert.Equal(t, "", mapping.Value(record, ColumnSupplier))
}
