package impl

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/models"
)

type stubRegistryService struct {
	entries map[string]*models.SpecRegistryEntry
}

func (s *stubRegistryService) Lookup(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error) {
	return s.entries[canonicalName], nil
}
func (s *stubRegistryService) Resolve(ctx context.Context, label string) (string, bool, error) {
	return "", false, nil
}
func (s *stubRegistryService) RegisterAuto(ctx context.Context, label string, inferredType models.SpecDataType) (string, error) {
	return "", nil
}
func (s *stubRegistryService) Approve(ctx context.Context, canonicalName string) error { return nil }
func (s *stubRegistryService) NormalizeUnit(ctx context.Context, canonicalName string, rawValue float64, rawUnit string) (float64, error) {
	return rawValue, nil
}
func (s *stubRegistryService) Invalidate(ctx context.Context) error { return nil }

type stubRegistryStore struct {
	rule *models.EquivalenceRule
}

func (s *stubRegistryStore) GetEntry(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error) {
	return nil, nil
}
func (s *stubRegistryStore) ResolveSynonym(ctx context.Context, normalizedLabel string) (*models.SpecRegistryEntry, error) {
	return nil, nil
}
func (s *stubRegistryStore) PutEntry(ctx context.Context, entry *models.SpecRegistryEntry) error {
	return nil
}
func (s *stubRegistryStore) ListActivePatterns(ctx context.Context, brandHint string) ([]models.ModelPattern, error) {
	return nil, nil
}
func (s *stubRegistryStore) GetEquivalenceRule(ctx context.Context, familyCode string) (*models.EquivalenceRule, error) {
	return s.rule, nil
}

type stubConflictStore struct {
	created []*models.SpecConflict
}

func (s *stubConflictStore) Create(ctx context.Context, conflict *models.SpecConflict) error {
	s.created = append(s.created, conflict)
	return nil
}
func (s *stubConflictStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SpecConflict, error) {
	return nil, nil
}
func (s *stubConflictStore) List(ctx context.Context, filter models.ConflictListFilter) ([]models.SpecConflict, error) {
	return nil, nil
}
func (s *stubConflictStore) Resolve(ctx context.Context, id uuid.UUID, resolution models.ConflictResolution, resolvedValue *models.SpecValue, resolvedAt time.Time) error {
	return nil
}

func newTestConflictEngine() (*conflictEngineService, *stubConflictStore) {
	registry := &stubRegistryService{entries: map[string]*models.SpecRegistryEntry{
		"voltage_v": {CanonicalName: "voltage_v", IsCritical: true},
	}}
	store := &stubRegistryStore{}
	conflicts := &stubConflictStore{}
	engine := NewConflictEngineService(registry, store, conflicts, 0.05).(*conflictEngineService)
	return engine, conflicts
}

func TestConflictEngineEvaluate(t *testing.T) {
	ctx := context.Background()

	t.Run("no existing value writes without conflict", func(t *testing.T) {
		engine, conflicts := newTestConflictEngine()
		product := &models.Product{ID: uuid.New(), Family: "reach_in", Specs: models.SpecMap{}}
		decision, err := engine.Evaluate(ctx, product, "storage_capacity_cuft", models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: 49.9}, uuid.New(), uuid.Nil, "2026-01-01", "")
		require.NoError(t, err)
		assert.Equal(t, "write", decision.Action)
		assert.Empty(t, conflicts.created)
	})

	t.Run("equal values within tolerance are a noop", func(t *testing.T) {
		engine, conflicts := newTestConflictEngine()
		product := &models.Product{ID: uuid.New(), Family: "reach_in", Specs: models.SpecMap{
			"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 49.9},
		}}
		decision, err := engine.Evaluate(ctx, product, "storage_capacity_cuft", models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: 50.0}, uuid.New(), uuid.Nil, "2026-01-01", "2026-01-01")
		require.NoError(t, err)
		assert.Equal(t, "noop", decision.Action)
		assert.Empty(t, conflicts.created)
	})

	t.Run("newer revision by at least a day overwrites", func(t *testing.T) {
		engine, conflicts := newTestConflictEngine()
		product := &models.Product{ID: uuid.New(), Family: "reach_in", Specs: models.SpecMap{
			"storage_capacity_cuft": {Kind: models.SpecValueNumeric, NumericVal: 49.0},
		}}
		decision, err := engine.Evaluate(ctx, product, "storage_capacity_cuft", models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: 60.0}, uuid.New(), uuid.Nil, "2026-02-01", "2026-01-01")
		require.NoError(t, err)
		assert.Equal(t, "overwrite", decision.Action)
		assert.Empty(t, conflicts.created)
	})

	t.Run("differing values with tied revisions record a conflict", func(t *testing.T) {
		engine, conflicts := newTestConflictEngine()
		product := &models.Product{ID: uuid.New(), Family: "reach_in", Specs: models.SpecMap{
			"voltage_v": {Kind: models.SpecValueNumeric, NumericVal: 115.0},
		}}
		decision, err := engine.Evaluate(ctx, product, "voltage_v", models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: 208.0}, uuid.New(), uuid.Nil, "2026-01-01", "2026-01-01")
		require.NoError(t, err)
		assert.Equal(t, "conflict", decision.Action)
		assert.Equal(t, models.ConflictSeverityCritical, decision.Severity)
		require.Len(t, conflicts.created, 1)
		assert.Equal(t, models.ConflictPending, conflicts.created[0].Resolution)
	})

	t.Run("non critical spec in conflict gets medium severity", func(t *testing.T) {
		engine, conflicts := newTestConflictEngine()
		product := &models.Product{ID: uuid.New(), Family: "reach_in", Specs: models.SpecMap{
			"shelf_count": {Kind: models.SpecValueNumeric, NumericVal: 3},
		}}
		decision, err := engine.Evaluate(ctx, product, "shelf_count", models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: 4}, uuid.New(), uuid.Nil, "2026-01-01", "2026-01-01")
		require.NoError(t, err)
		assert.Equal(t, models.ConflictSeverityMedium, decision.Severity)
		require.Len(t, conflicts.created, 1)
	})
}

func TestRevisionNewerByADay(t *testing.T) {
	tests := []struct {
		name     string
		newRev   string
		oldRev   string
		expected bool
	}{
		{"strictly newer by a day", "2026-01-02", "2026-01-01", true},
		{"same day is not newer", "2026-01-01", "2026-01-01", false},
		{"missing new revision", "", "2026-01-01", false},
		{"missing existing revision", "2026-01-01", "", false},
		{"unparseable revision", "not-a-date", "2026-01-01", false},
		{"older revision", "2025-12-31", "2026-01-01", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, revisionNewerByADay(tt.newRev, tt.oldRev))
		})
	}
}
