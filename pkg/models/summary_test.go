package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlignmentScore(t *testing.T) {
	tests := []struct {
		name     string
		filtered int
		total    int
		want     float64
	}{
		{"all results pass filters", 10, 10, 10.0},
		{"half pass", 5, 10, 5.0},
		{"rounds to one decimal", 1, 3, 3.3},
		{"rounds up", 2, 3, 6.7},
		{"zero total scores zero", 0, 0, 0.0},
		{"zero filtered", 0, 8, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AlignmentScore(tt.filtered, tt.total), 1e-9)
		})
	}
}

func TestCountManufacturers(t *testing.T) {
	variants := []DrugVariant{
		{BrandName: "A", ManufacturerName: "Pfizer"},
		{BrandName: "B", ManufacturerName: "Teva"},
		{BrandName: "C", ManufacturerName: "Pfizer"},
		{BrandName: "D", ManufacturerName: ""},
	}

	counts := CountManufacturers(variants)

	assert.Equal(t, map[string]int{"Pfizer": 2, "Teva": 1}, counts)
}

func TestCountManufacturersEmpty(t *testing.T) {
	assert.Empty(t, CountManufacturers(nil))
}
