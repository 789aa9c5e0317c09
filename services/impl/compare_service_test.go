package impl

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

type stubProductStore struct {
	byID          map[uuid.UUID]*models.Product
	relationships map[uuid.UUID][]models.ProductRelationship
}

func (s *stubProductStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.byID[id], nil
}
func (s *stubProductStore) GetByModelNumber(ctx context.Context, modelNumber string) (*models.Product, error) {
	return nil, nil
}
func (s *stubProductStore) List(ctx context.Context, filter models.ProductListFilter) (*models.ProductListResponse, error) {
	return &models.ProductListResponse{}, nil
}
func (s *stubProductStore) Upsert(ctx context.Context, fn func(tx services.ProductTx) error) error {
	return nil
}
func (s *stubProductStore) ListRelationships(ctx context.Context, productID uuid.UUID) ([]models.ProductRelationship, error) {
	return s.relationships[productID], nil
}
func (s *stubProductStore) PutRelationship(ctx context.Context, rel models.ProductRelationship) error {
	return nil
}

type stubRegistryServiceForCompare struct{}

func (s *stubRegistryServiceForCompare) Lookup(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error) {
	if canonicalName == "storage_capacity_cuft" {
		return &models.SpecRegistryEntry{CanonicalName: canonicalName, DisplayName: "Storage Capacity"}, nil
	}
	return nil, nil
}
func (s *stubRegistryServiceForCompare) Resolve(ctx context.Context, label string) (string, bool, error) {
	return "", false, nil
}
func (s *stubRegistryServiceForCompare) RegisterAuto(ctx context.Context, label string, inferredType models.SpecDataType) (string, error) {
	return "", nil
}
func (s *stubRegistryServiceForCompare) Approve(ctx context.Context, canonicalName string) error {
	return nil
}
func (s *stubRegistryServiceForCompare) NormalizeUnit(ctx context.Context, canonicalName string, rawValue float64, rawUnit string) (float64, error) {
	return rawValue, nil
}
func (s *stubRegistryServiceForCompare) Invalidate(ctx context.Context) error { return nil }

func TestCompareService_Compare(t *testing.T) {
	ctx := context.Background()
	idA, idB := uuid.New(), uuid.New()
	products := &stubProductStore{byID: map[uuid.UUID]*models.Product{
		idA: {ID: idA, Specs: models.SpecMap{
			"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 49.5},
			"voltage_v":             {Kind: models.SpecValueNumeric, NumericVal: 115},
		}},
		idB: {ID: idB, Specs: models.SpecMap{
			"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 72.0},
		}},
	}}
	compare := NewCompareService(products, &stubRegistryServiceForCompare{})

	t.Run("rejects fewer than two products", func(t *testing.T) {
		_, err := compare.Compare(ctx, models.CompareRequest{ProductIDs: []uuid.UUID{idA}})
		assert.Error(t, err)
	})

	t.Run("builds an aligned row per union of spec names", func(t *testing.T) {
		resp, err := compare.Compare(ctx, models.CompareRequest{ProductIDs: []uuid.UUID{idA, idB}})
		require.NoError(t, err)
		require.Len(t, resp.Rows, 2)

		var capacityRow, voltageRow *models.CompareRow
		for i := range resp.Rows {
			switch resp.Rows[i].CanonicalName {
			case "storage_capacity_cuft":
				capacityRow = &resp.Rows[i]
			case "voltage_v":
				voltageRow = &resp.Rows[i]
			}
		}
		require.NotNil(t, capacityRow)
		require.NotNil(t, voltageRow)
		assert.Equal(t, "Storage Capacity", capacityRow.DisplayName)
		assert.True(t, capacityRow.Differs)
		assert.True(t, voltageRow.Differs, "a spec present on only one product still differs")
		assert.Nil(t, voltageRow.Values[idB.String()])
	})

	t.Run("highlight differences drops identical rows", func(t *testing.T) {
		idC := uuid.New()
		products.byID[idC] = &models.Product{ID: idC, Specs: models.SpecMap{
			"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 49.5},
			"voltage_v":             {Kind: models.SpecValueNumeric, NumericVal: 115},
		}}
		same := &stubProductStore{byID: map[uuid.UUID]*models.Product{
			idA: products.byID[idA],
			idC: products.byID[idC],
		}}
		compareSame := NewCompareService(same, &stubRegistryServiceForCompare{})
		resp, err := compareSame.Compare(ctx, models.CompareRequest{ProductIDs: []uuid.UUID{idA, idC}, HighlightDifferences: true})
		require.NoError(t, err)
		assert.Empty(t, resp.Rows)
	})

	t.Run("missing product returns not found error", func(t *testing.T) {
		_, err := compare.Compare(ctx, models.CompareRequest{ProductIDs: []uuid.UUID{idA, uuid.New()}})
		assert.Error(t, err)
	})
}

func TestCompareService_Equivalents(t *testing.T) {
	ctx := context.Background()
	root, a, b, c := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	products := &stubProductStore{
		byID: map[uuid.UUID]*models.Product{
			root: {ID: root, ModelNumber: "ROOT-1"},
			a:    {ID: a, ModelNumber: "A-1"},
			b:    {ID: b, ModelNumber: "B-1"},
			c:    {ID: c, ModelNumber: "C-1"},
		},
		relationships: map[uuid.UUID][]models.ProductRelationship{
			root: {{SourceID: root, TargetID: a, Kind: "equivalent"}},
			a:    {{SourceID: root, TargetID: a, Kind: "equivalent"}, {SourceID: a, TargetID: b, Kind: "equivalent"}},
			b:    {{SourceID: a, TargetID: b, Kind: "equivalent"}, {SourceID: b, TargetID: root, Kind: "equivalent"}},
		},
	}
	compare := NewCompareService(products, &stubRegistryServiceForCompare{})

	resp, err := compare.Equivalents(ctx, root, 3)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]models.EquivalentEntry)
	for _, e := range resp.Equivalents {
		byID[e.ProductID] = e
	}
	require.Contains(t, byID, a)
	require.Contains(t, byID, b)
	assert.Equal(t, 1, byID[a].Depth)
	assert.Equal(t, 2, byID[b].Depth)
	// c is unreachable and the root->a->b->root cycle must not loop forever.
	assert.NotContains(t, byID, c)
}

func TestComparableSpecNames(t *testing.T) {
	products := []*models.Product{
		{Specs: models.SpecMap{"b": {}, "a": {}}},
		{Specs: models.SpecMap{"a": {}, "c": {}}},
	}
	names := comparableSpecNames(products)
	assert.Equal(t, []string{"a", "b", "c"}, names)
}
