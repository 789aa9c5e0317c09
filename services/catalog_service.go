package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
)

// ProductStore is the Catalog Store's product-facing contract (spec.md §4.8):
// transactional upsert with revision semantics, version snapshotting, and the
// finder API (by id, by model_number, by filter predicate).
type ProductStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetByModelNumber(ctx context.Context, modelNumber string) (*models.Product, error)
	List(ctx context.Context, filter models.ProductListFilter) (*models.ProductListResponse, error)

	// Upsert applies specs/fixed-column mutations within a transaction,
	// writing a ProductVersionSnapshot of the pre-image whenever Version or
	// Specs change (spec.md §3 invariant, §5 ordering guarantee (c)).
	Upsert(ctx context.Context, fn func(tx ProductTx) error) error

	ListRelationships(ctx context.Context, productID uuid.UUID) ([]models.ProductRelationship, error)
	PutRelationship(ctx context.Context, rel models.ProductRelationship) error
}

// ProductTx is the transactional handle Upsert's callback receives; it wraps a
// single `SELECT ... FOR UPDATE`-locked product row plus the snapshot/audit
// writes that must commit atomically with it (spec.md §5 ordering guarantee (b)).
type ProductTx interface {
	// LockByModelNumber locks (or creates a draft for) the product row keyed by
	// model_number, returning its current state.
	LockByModelNumber(modelNumber string) (*models.Product, error)
	// LockByID locks the product row by its primary key, for callers that
	// already hold a product id (e.g. resolving a Spec Conflict, which
	// references Product by id rather than by model_number).
	LockByID(id uuid.UUID) (*models.Product, error)
	// Save persists the mutated product and, if Version or Specs changed,
	// writes a snapshot of the pre-image; every Save also writes an audit
	// entry.
	Save(product *models.Product, changeSummary, changedBy string) error
}

// DocumentStore is the Catalog Store's document-facing contract (spec.md §3,
// §4.8): checksum_sha256-keyed idempotent upsert and provenance-link writes.
type DocumentStore interface {
	GetByChecksum(ctx context.Context, checksum string) (*models.Document, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Update(ctx context.Context, doc *models.Document) error
	PutLink(ctx context.Context, link models.DocumentProductLink) error
}

// ChunkStore persists retrieval chunks (spec.md §4.9).
type ChunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Chunk, error)
	VectorSearch(ctx context.Context, queryVector []float32, topK int, filter models.RetrievalFilters) ([]models.RankedChunk, error)
	LexicalSearch(ctx context.Context, query string, topK int, filter models.RetrievalFilters) ([]models.RankedChunk, error)
}

// ConflictStore persists Spec Conflicts (spec.md §3, §4.7).
type ConflictStore interface {
	Create(ctx context.Context, conflict *models.SpecConflict) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.SpecConflict, error)
	List(ctx context.Context, filter models.ConflictListFilter) ([]models.SpecConflict, error)
	// Resolve mutates a pending conflict exactly once, enforcing the
	// pending -> terminal lifecycle (spec.md §8 testable property 6). When
	// the resolution produces a concrete value (accept_new or
	// manual_override), the implementation also writes that value into the
	// conflict's product in the same transaction (spec.md §4.7).
	Resolve(ctx context.Context, id uuid.UUID, resolution models.ConflictResolution, resolvedValue *models.SpecValue, resolvedAt time.Time) error
}

// AuditStore is append-only: no Update, no Delete, per spec.md §3.
type AuditStore interface {
	Record(ctx context.Context, entry models.AuditLogEntry) error
	ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLogEntry, error)
}

// JobStore persists IngestionJob aggregates (spec.md §3, §4.12).
type JobStore interface {
	Create(ctx context.Context, job *models.IngestionJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error)
	Update(ctx context.Context, job *models.IngestionJob) error
}

// RegistryStore persists Spec Registry entries and the read-mostly Model
// Pattern / Equivalence Rule tables backing the Registry, Model Resolver, and
// Recommendation Engine (spec.md §4.6, §4.3, §9).
type RegistryStore interface {
	GetEntry(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error)
	ResolveSynonym(ctx context.Context, normalizedLabel string) (*models.SpecRegistryEntry, error)
	PutEntry(ctx context.Context, entry *models.SpecRegistryEntry) error
	ListActivePatterns(ctx context.Context, brandHint string) ([]models.ModelPattern, error)
	GetEquivalenceRule(ctx context.Context, familyCode string) (*models.EquivalenceRule, error)
}

// RecommendationStore persists Use Case Profiles backing the Recommendation
// Engine (spec.md §4.11).
type RecommendationStore interface {
	GetProfile(ctx context.Context, name string) (*models.UseCaseProfile, error)
	ListProfiles(ctx context.Context) ([]models.UseCaseProfile, error)
}
