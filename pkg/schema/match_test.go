package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want int
	}{
		{"identical", "pharmacy", "pharmacy", 100},
		{"both empty", "", "", 100},
		{"one empty", "ndc", "", 0},
		{"single substitution", "pharmcy", "pharmacy", 87}, // dist 1 over len 8
		{"completely different", "xyz", "pharmacy", 0},
		{"case sensitive", "NDC", "ndc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ratio(tt.a, tt.b))
		})
	}
}

func TestRatioSymmetry(t *testing.T) {
	assert.Equal(t, Ratio("stock status", "status"), Ratio("status", "stock status"))
}

func TestLevenshteinUnicode(t *testing.T) {
	// Distance counts runes, not bytes.
	assert.Equal(t, 1, levenshtein([]rune("naïve"), []rune("naive")))
}
