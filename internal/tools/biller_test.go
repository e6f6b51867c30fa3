package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		biller string
		want   BillerCategory
	}{
		{"Tenaga Nasional Berhad", CategoryElectricity},
		{"TNB", CategoryElectricity},
		{"Syabas", CategoryWater},
		{"Air Selangor", CategoryWater},
		{"Indah Water", CategoryWater},
		{"Unifi Home", CategoryTelecom},
		{"CELCOM", CategoryTelecom},
		{"Maxis", CategoryTelecom},
		{"Digi", CategoryTelecom},
		{"TM", CategoryTelecom},
		{"Astro", CategoryEntertainment},
		{"Netflix", CategoryDefault},
		{"", CategoryDefault},
		// "air" is checked before the telecom keywords
		{"Airtime Maxis", CategoryWater},
	}
	for _, tt := range tests {
		t.Run(tt.biller, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryFor(tt.biller))
			assert.Equal(t, tt.want, CategoryFor(tt.biller), "deterministic")
		})
	}
}

func TestCategoryIcon(t *testing.T) {
	assert.Equal(t, "🧾", CategoryDefault.Icon())
	assert.NotEqual(t, CategoryDefault.Icon(), CategoryWater.Icon())
}
