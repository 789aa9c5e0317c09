package impl

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/models"
)

func listPairs(t *testing.T, sv models.SpecValue) map[string]string {
	t.Helper()
	require.Equal(t, models.SpecValueList, sv.Kind)
	out := make(map[string]string, len(sv.ListVal))
	for _, entry := range sv.ListVal {
		for i := 0; i < len(entry); i++ {
			if entry[i] == '=' {
				out[entry[:i]] = entry[i+1:]
				break
			}
		}
	}
	return out
}

func TestParseDoorConfig(t *testing.T) {
	p := NewCompoundParserService()

	t.Run("two glass sliding doors with left hinge", func(t *testing.T) {
		sv, ok := p.ParseDoorConfig("Two Glass-Sliding Doors, Left Hinge, Self-Closing")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.Equal(t, "2", pairs["door_count"])
		assert.Equal(t, "glass_sliding", pairs["door_type"])
		assert.Equal(t, "left", pairs["door_hinge"])
		assert.Equal(t, "self_closing", pairs["door_features"])
	})

	t.Run("numeric count with both hinges", func(t *testing.T) {
		sv, ok := p.ParseDoorConfig("3 solid doors, left and right hinge, locking")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.Equal(t, "3", pairs["door_count"])
		assert.Equal(t, "solid", pairs["door_type"])
		assert.Equal(t, "both", pairs["door_hinge"])
		assert.Equal(t, "locking", pairs["door_features"])
	})

	t.Run("no count found fails", func(t *testing.T) {
		sv, ok := p.ParseDoorConfig("glass door")
		assert.False(t, ok)
		assert.True(t, sv.ParseFailed)
	})
}

func TestParseShelfConfig(t *testing.T) {
	p := NewCompoundParserService()

	t.Run("adjustable shelves with fractional increment", func(t *testing.T) {
		sv, ok := p.ParseShelfConfig("Four adjustable wire shelves, ½\" increment")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.Equal(t, "4", pairs["shelf_count"])
		assert.Equal(t, "adjustable", pairs["shelf_type"])
		assert.Equal(t, "0.5", pairs["shelf_adjustment_increment"])
	})

	t.Run("mixed fixed and adjustable", func(t *testing.T) {
		sv, ok := p.ParseShelfConfig("2 fixed and adjustable shelves")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.Equal(t, "mixed", pairs["shelf_type"])
	})
}

func TestParseTemperatureRange(t *testing.T) {
	p := NewCompoundParserService()

	tests := []struct {
		name    string
		raw     string
		wantMin float64
		wantMax float64
	}{
		{"celsius range", "-2C to 4C", -2, 4},
		{"fahrenheit range converts to celsius", "33F to 40F", 0.6, 4.4},
		{"single celsius value", "-18C", -18, -18},
		{"single fahrenheit value", "0F", -17.8, -17.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv, ok := p.ParseTemperatureRange(tt.raw)
			require.True(t, ok)
			assert.Equal(t, models.SpecValueRange, sv.Kind)
			assert.InDelta(t, tt.wantMin, sv.RangeMin, 0.15)
			assert.InDelta(t, tt.wantMax, sv.RangeMax, 0.15)
			assert.Equal(t, "c", sv.Unit)
		})
	}

	t.Run("unparseable text fails", func(t *testing.T) {
		sv, ok := p.ParseTemperatureRange("ambient")
		assert.False(t, ok)
		assert.True(t, sv.ParseFailed)
	})
}

func TestParseElectrical(t *testing.T) {
	p := NewCompoundParserService()

	t.Run("voltage range with frequency and amperage", func(t *testing.T) {
		sv, ok := p.ParseElectrical("115-120V, 60Hz, 9.8 Amp")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.Equal(t, "115", pairs["voltage_min"])
		assert.Equal(t, "120", pairs["voltage_max"])
		assert.Equal(t, "60", pairs["frequency_hz"])
		assert.Equal(t, "9.8", pairs["amperage"])
	})

	t.Run("fractional horsepower", func(t *testing.T) {
		sv, ok := p.ParseElectrical("1/3 HP compressor")
		require.True(t, ok)
		pairs := listPairs(t, sv)
		assert.InDelta(t, 0.333, mustFloat(t, pairs["horsepower"]), 0.01)
	})

	t.Run("no electrical tokens fails", func(t *testing.T) {
		sv, ok := p.ParseElectrical("stainless steel exterior")
		assert.False(t, ok)
		assert.True(t, sv.ParseFailed)
	})
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	v, err := strconv.ParseFloat(s, 64)
	require.NoError(t, err)
	return v
}

func TestParseRefrigerant(t *testing.T) {
	p := NewCompoundParserService()

	sv, ok := p.ParseRefrigerant("Refrigerant: R290a, Low GWP")
	require.True(t, ok)
	assert.Equal(t, "R290a", sv.TextVal)

	sv, ok = p.ParseRefrigerant("no refrigerant token here")
	assert.False(t, ok)
	assert.True(t, sv.ParseFailed)
}

func TestParseCertifications(t *testing.T) {
	p := NewCompoundParserService()

	t.Run("known tokens deduplicated", func(t *testing.T) {
		sv, ok := p.ParseCertifications("ETL, C-ETL, ETL, ENERGY STAR")
		require.True(t, ok)
		assert.ElementsMatch(t, []string{"ETL", "C-ETL", "ENERGY STAR"}, sv.ListVal)
	})

	t.Run("unrecognized tokens fall back to raw split", func(t *testing.T) {
		sv, ok := p.ParseCertifications("CustomCert1/CustomCert2")
		require.True(t, ok)
		assert.ElementsMatch(t, []string{"CustomCert1", "CustomCert2"}, sv.ListVal)
	})
}

func TestParseFractionalDimension(t *testing.T) {
	p := NewCompoundParserService()

	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"unicode fraction", "23¾", 23.75},
		{"slash fraction", "48 5/8", 48.625},
		{"plain decimal", "30.5", 30.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sv, ok := p.ParseFractionalDimension(tt.raw)
			require.True(t, ok)
			assert.Equal(t, models.SpecValueNumeric, sv.Kind)
			assert.InDelta(t, tt.want, sv.NumericVal, 0.01)
		})
	}

	t.Run("non numeric fails", func(t *testing.T) {
		sv, ok := p.ParseFractionalDimension("not a number")
		assert.False(t, ok)
		assert.True(t, sv.ParseFailed)
	})
}
