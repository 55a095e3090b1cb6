package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDrugName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Ibuprofen", "ibuprofen"},
		{"  IBUPROFEN  ", "ibuprofen"},
		{"Benadryl® 25mg Tablets", "benadryl"},
		{"diphenhydramine HCl 50 mg capsule", "diphenhydramine"},
		{"Acetaminophen 0.5g oral suspension", "acetaminophen"},
		{"Théophylline", "theophylline"},
		{"acetylsalicylic-acid", "acetylsalicylic acid"},
		{"insulin glargine 100 units/ml", "insulin glargine"},
		{"25 mg", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeDrugName(tt.input))
		})
	}
}
