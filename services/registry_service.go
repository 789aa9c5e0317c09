package services

import (
	"context"

	"github.com/coldcatalog/catalog-service/models"
)

// RegistryService is the Spec Registry contract (spec.md §4.6): canonical spec
// catalog, unit normalization, and synonym resolution. Registration is
// idempotent on canonical_name; Resolve is idempotent and pure.
type RegistryService interface {
	Lookup(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error)
	Resolve(ctx context.Context, label string) (canonicalName string, found bool, err error)
	RegisterAuto(ctx context.Context, label string, inferredType models.SpecDataType) (canonicalName string, err error)
	Approve(ctx context.Context, canonicalName string) error

	// NormalizeUnit converts a raw numeric value expressed in an alternate unit
	// into the Registry entry's canonical unit (spec.md §4.6).
	NormalizeUnit(ctx context.Context, canonicalName string, rawValue float64, rawUnit string) (float64, error)

	// Invalidate forces the in-memory cache to refresh on next Lookup/Resolve,
	// per the "write -> invalidate" notification in SPEC_FULL.md §4.6.
	Invalidate(ctx context.Context) error
}
