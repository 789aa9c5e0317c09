package impl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/coldcatalog/catalog-service/models"
)

func TestBandDecay(t *testing.T) {
	band := models.TargetBand{Min: 40, Max: 50}

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"inside band scores 1.0", 45, 1.0},
		{"at lower edge scores 1.0", 40, 1.0},
		{"at upper edge scores 1.0", 50, 1.0},
		{"at full decay distance scores 0.0", 20, 0.0},
		{"beyond decay distance stays 0.0", 10, 0.0},
		{"halfway through decay scores 0.5", 30, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, bandDecay(tt.value, band), 1e-9)
		})
	}

	t.Run("zero width band treats width as 1.0 for decay", func(t *testing.T) {
		zeroWidth := models.TargetBand{Min: 49, Max: 49}
		assert.Equal(t, 1.0, bandDecay(49, zeroWidth))
		assert.InDelta(t, 0.5, bandDecay(50, zeroWidth), 1e-9)
	})
}

func TestScoreProduct(t *testing.T) {
	capacity := 49.5
	t.Run("missing required spec disqualifies the product", func(t *testing.T) {
		p := models.Product{Specs: models.SpecMap{}}
		weights := models.SpecWeights{
			{SpecName: "storage_capacity_cuft", Weight: 1.0, TargetBand: models.TargetBand{Min: 40, Max: 50}, Required: true},
		}
		_, _, disqualified := scoreProduct(p, weights)
		assert.True(t, disqualified)
	})

	t.Run("missing optional spec contributes zero but does not disqualify", func(t *testing.T) {
		p := models.Product{StorageCapacityCuFt: &capacity}
		weights := models.SpecWeights{
			{SpecName: "storage_capacity_cuft", Weight: 0.7, TargetBand: models.TargetBand{Min: 40, Max: 50}},
			{SpecName: "voltage_v", Weight: 0.3, TargetBand: models.TargetBand{Min: 110, Max: 120}},
		}
		score, breakdown, disqualified := scoreProduct(p, weights)
		assert.False(t, disqualified)
		assert.InDelta(t, 0.7, score, 1e-9)
		assert.Len(t, breakdown, 2)
	})
}

func TestSpecFeatureValue(t *testing.T) {
	capacity := 49.5
	p := models.Product{
		StorageCapacityCuFt: &capacity,
		Specs: models.SpecMap{
			"temp_range_c": {Kind: models.SpecValueRange, RangeMin: -2, RangeMax: 4},
			"refrigerant":  {Kind: models.SpecValueText, TextVal: "R290a"},
		},
	}

	v, ok := specFeatureValue(p, "storage_capacity_cuft")
	assert.True(t, ok)
	assert.Equal(t, 49.5, v)

	v, ok = specFeatureValue(p, "temp_range_c")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = specFeatureValue(p, "refrigerant")
	assert.False(t, ok)

	_, ok = specFeatureValue(p, "not_a_spec")
	assert.False(t, ok)
}

func TestTieBreakLess(t *testing.T) {
	capA, capB := 48.0, 52.0
	a := models.Product{ModelNumber: "T-49", StorageCapacityCuFt: &capA}
	b := models.Product{ModelNumber: "T-72", StorageCapacityCuFt: &capB}

	t.Run("priority spec breaks the tie", func(t *testing.T) {
		assert.True(t, tieBreakLess(b, a, []string{"storage_capacity_cuft"}))
		assert.False(t, tieBreakLess(a, b, []string{"storage_capacity_cuft"}))
	})

	t.Run("no priority specs falls back to model number", func(t *testing.T) {
		assert.True(t, tieBreakLess(a, b, nil))
	})
}
