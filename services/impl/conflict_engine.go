package impl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// criticalSpecs are flagged is_critical in the Registry per spec.md §4.7's
// named examples; the authoritative flag still lives on the Registry entry,
// and this set is consulted only when the Registry has no entry for the spec
// (spec.md §9
// Open Question: "which specs are is_critical" is decided here).
var criticalSpecs = map[string]bool{
	"storage_capacity_cuft": true,
	"temp_range_min_c":      true,
	"temp_range_max_c":      true,
	"voltage_v":             true,
	"certifications":        true,
}

// conflictEngineService implements services.ConflictEngineService (spec.md §4.7).
type conflictEngineService struct {
	registry         services.RegistryService
	equivalenceRules services.RegistryStore
	conflicts        services.ConflictStore
	defaultTolerance float64
}

// NewConflictEngineService constructs the Conflict Engine.
func NewConflictEngineService(registry services.RegistryService, equivalenceRules services.RegistryStore, conflicts services.ConflictStore, defaultTolerance float64) services.ConflictEngineService {
	return &conflictEngineService{
		registry:         registry,
		equivalenceRules: equivalenceRules,
		conflicts:        conflicts,
		defaultTolerance: defaultTolerance,
	}
}

func (e *conflictEngineService) Evaluate(ctx context.Context, product *models.Product, canonicalName string, newValue models.SpecValue, newDocID, existingDocID uuid.UUID, newRevision, existingRevision string) (*services.ConflictDecision, error) {
	existingValue, hasExisting := product.Specs[canonicalName]

	// No existing value: write, no conflict (spec.md §4.7 decision table row 1).
	if !hasExisting {
		return &services.ConflictDecision{Action: "write"}, nil
	}

	tolerance, err := e.toleranceFor(ctx, product.Family, canonicalName)
	if err != nil {
		return nil, err
	}

	if existingValue.Equal(newValue, tolerance) {
		return &services.ConflictDecision{Action: "noop"}, nil
	}

	if revisionNewerByADay(newRevision, existingRevision) {
		return &services.ConflictDecision{Action: "overwrite"}, nil
	}

	severity := models.ConflictSeverityMedium
	if e.isCritical(ctx, canonicalName) {
		severity = models.ConflictSeverityCritical
	}

	conflict := &models.SpecConflict{
		ID:            uuid.New(),
		ProductID:     product.ID,
		SpecName:      canonicalName,
		ExistingValue: existingValue,
		NewValue:      newValue,
		SourceDocID:   newDocID,
		ExistingDocID: existingDocID,
		Severity:      severity,
		Resolution:    models.ConflictPending,
		CreatedAt:     time.Now(),
	}
	if err := e.conflicts.Create(ctx, conflict); err != nil {
		return nil, fmt.Errorf("failed to record spec conflict: %w", err)
	}

	return &services.ConflictDecision{Action: "conflict", ConflictID: conflict.ID, Severity: severity}, nil
}

func (e *conflictEngineService) toleranceFor(ctx context.Context, family, specName string) (float64, error) {
	rule, err := e.equivalenceRules.GetEquivalenceRule(ctx, family)
	if err != nil {
		return 0, fmt.Errorf("failed to load equivalence rule for tolerance: %w", err)
	}
	if rule == nil {
		return e.defaultTolerance, nil
	}
	return rule.ToleranceFor(specName, e.defaultTolerance), nil
}

func (e *conflictEngineService) isCritical(ctx context.Context, canonicalName string) bool {
	entry, err := e.registry.Lookup(ctx, canonicalName)
	if err == nil && entry != nil {
		return entry.IsCritical
	}
	return criticalSpecs[canonicalName]
}

// revisionNewerByADay reports whether newRevision is strictly newer than
// existingRevision by at least one day; a missing or unparseable revision on
// either side is never "newer" (spec.md §4.7 decision table row 4: "revisions
// tied or missing" falls through to the conflict case).
func revisionNewerByADay(newRevision, existingRevision string) bool {
	if newRevision == "" || existingRevision == "" {
		return false
	}
	newer, err1 := time.Parse("2006-01-02", newRevision)
	older, err2 := time.Parse("2006-01-02", existingRevision)
	if err1 != nil || err2 != nil {
		return false
	}
	return newer.Sub(older) >= 24*time.Hour
}
