package impl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

func TestHarvestLabelValues(t *testing.T) {
	text := "Model: T-49\nStorage Capacity: 49.5 cu ft\nThis is a sentence, not a label.\nDoor Config: Two Glass Doors"

	got := harvestLabelValues(text)

	require.Len(t, got, 3)
	assert.Equal(t, "Model", got[0].Label)
	assert.Equal(t, "T-49", got[0].RawValue)
	assert.Equal(t, "Storage Capacity", got[1].Label)
	assert.Equal(t, "49.5 cu ft", got[1].RawValue)
	assert.Equal(t, "Door Config", got[2].Label)
}

func TestMappedCanonicalNames(t *testing.T) {
	mapped := []services.MappedField{
		{CanonicalName: "storage_capacity_cuft"},
		{CanonicalName: "voltage_v"},
		{CanonicalName: "storage_capacity_cuft"},
	}
	assert.Equal(t, []string{"storage_capacity_cuft", "voltage_v"}, mappedCanonicalNames(mapped))
}

func TestSha256Hex(t *testing.T) {
	a := sha256Hex([]byte("hello"))
	b := sha256Hex([]byte("hello"))
	c := sha256Hex([]byte("world"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestExpandListPairs(t *testing.T) {
	sv := models.SpecValue{
		Kind:    models.SpecValueList,
		ListVal: []string{"door_count=2", "door_type=glass_sliding", "door_features=locking,self_closing"},
		RawText: "two glass sliding doors, locking, self-closing",
	}

	out := expandListPairs(sv)

	require.Contains(t, out, "door_count")
	assert.Equal(t, models.SpecValueNumeric, out["door_count"].Kind)
	assert.Equal(t, 2.0, out["door_count"].NumericVal)

	require.Contains(t, out, "door_type")
	assert.Equal(t, models.SpecValueText, out["door_type"].Kind)
	assert.Equal(t, "glass_sliding", out["door_type"].TextVal)

	require.Contains(t, out, "door_features")
	assert.Equal(t, models.SpecValueList, out["door_features"].Kind)
	assert.Equal(t, []string{"locking", "self_closing"}, out["door_features"].ListVal)
}

func TestApplyFixedColumns(t *testing.T) {
	p := &models.Product{Specs: models.SpecMap{
		"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 49.5},
		"temp_range_c":          {Kind: models.SpecValueRange, RangeMin: -2, RangeMax: 4},
		"door_count":            {Kind: models.SpecValueNumeric, NumericVal: 2},
		"door_type":             {Kind: models.SpecValueText, TextVal: "glass"},
		"certifications":        {Kind: models.SpecValueList, ListVal: []string{"ETL", "NSF"}},
	}}

	applyFixedColumns(p)

	require.NotNil(t, p.StorageCapacityCuFt)
	assert.Equal(t, 49.5, *p.StorageCapacityCuFt)
	require.NotNil(t, p.TempRangeMinC)
	require.NotNil(t, p.TempRangeMaxC)
	assert.Equal(t, -2.0, *p.TempRangeMinC)
	assert.Equal(t, 4.0, *p.TempRangeMaxC)
	require.NotNil(t, p.DoorCount)
	assert.Equal(t, 2, *p.DoorCount)
	assert.Equal(t, "glass", p.DoorType)
	assert.Equal(t, []string{"ETL", "NSF"}, []string(p.Certifications))
}

func TestBasicSpecValue(t *testing.T) {
	registry := &stubRegistryService{entries: map[string]*models.SpecRegistryEntry{
		"voltage_v":      {CanonicalName: "voltage_v", DataType: models.SpecDataTypeNumeric},
		"has_casters":    {CanonicalName: "has_casters", DataType: models.SpecDataTypeBoolean},
		"door_type_enum": {CanonicalName: "door_type_enum", DataType: models.SpecDataTypeEnum},
		"tags":           {CanonicalName: "tags", DataType: models.SpecDataTypeList},
	}}
	o := &orchestratorService{registry: registry}
	ctx := context.Background()

	sv := o.basicSpecValue(ctx, "voltage_v", "115")
	assert.Equal(t, models.SpecValueNumeric, sv.Kind)
	assert.Equal(t, 115.0, sv.NumericVal)

	sv = o.basicSpecValue(ctx, "voltage_v", "not a number")
	assert.True(t, sv.ParseFailed)

	sv = o.basicSpecValue(ctx, "has_casters", "Yes")
	assert.Equal(t, models.SpecValueBoolean, sv.Kind)
	assert.True(t, sv.BoolVal)

	sv = o.basicSpecValue(ctx, "tags", "a, b, c")
	assert.Equal(t, models.SpecValueList, sv.Kind)
	assert.Equal(t, []string{"a", "b", "c"}, sv.ListVal)

	sv = o.basicSpecValue(ctx, "door_type_enum", " glass ")
	assert.Equal(t, models.SpecValueEnum, sv.Kind)
	assert.Equal(t, "glass", sv.EnumVal)

	sv = o.basicSpecValue(ctx, "unknown_field", "free text")
	assert.Equal(t, models.SpecValueText, sv.Kind)
	assert.Equal(t, "free text", sv.TextVal)
}
