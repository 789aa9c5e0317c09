package impl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// productStore implements services.ProductStore (spec.md §4.8), grounded on
// the teacher's agentServiceImpl query conventions (services/impl/agent_service_impl.go):
// WithContext, chained Where predicates, JSONB @> containment filters, offset/limit
// pagination.
type productStore struct {
	db *gorm.DB
}

// NewProductStore constructs the Catalog Store's product repository.
func NewProductStore(db *gorm.DB) services.ProductStore {
	return &productStore{db: db}
}

func (s *productStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (s *productStore) GetByModelNumber(ctx context.Context, modelNumber string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("model_number = ?", modelNumber).
		Order("version DESC").
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by model number: %w", err)
	}
	return &product, nil
}

func (s *productStore) List(ctx context.Context, filter models.ProductListFilter) (*models.ProductListResponse, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if filter.Brand != "" {
		query = query.Where("brand = ?", filter.Brand)
	}
	if filter.Family != "" {
		query = query.Where("family = ?", filter.Family)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	} else {
		query = query.Where("status != ?", models.ProductStatusDraft)
	}
	if filter.DoorType != "" {
		query = query.Where("door_type = ?", filter.DoorType)
	}
	if filter.CapacityMin != nil {
		query = query.Where("storage_capacity_cuft >= ?", *filter.CapacityMin)
	}
	if filter.CapacityMax != nil {
		query = query.Where("storage_capacity_cuft <= ?", *filter.CapacityMax)
	}
	if filter.TempRangeMinC != nil {
		query = query.Where("temp_range_min_c >= ?", *filter.TempRangeMinC)
	}
	if filter.TempRangeMaxC != nil {
		query = query.Where("temp_range_max_c <= ?", *filter.TempRangeMaxC)
	}
	for _, cert := range filter.Certifications {
		query = query.Where("certifications @> ?", pqArrayLiteral([]string{cert}))
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		query = query.Where("model_number ILIKE ? OR description ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	var products []models.Product
	if err := query.Offset((page - 1) * size).Limit(size).Order("model_number ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &models.ProductListResponse{
		Products: products,
		Total:    total,
		Page:     page,
		PageSize: size,
	}, nil
}

// pqArrayLiteral renders a Postgres text[] literal for a `@>` containment
// comparison against a pq.StringArray column.
func pqArrayLiteral(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + strings.ReplaceAll(v, `"`, `\"`) + `"`
	}
	return "{" + strings.Join(quoted, ",") + "}"
}

// productTx is the transactional handle passed into Upsert's callback.
type productTx struct {
	ctx context.Context
	tx  *gorm.DB
}

func (t *productTx) LockByModelNumber(modelNumber string) (*models.Product, error) {
	var product models.Product
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("model_number = ?", modelNumber).
		Order("version DESC").
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &product, nil
}

func (t *productTx) LockByID(id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	return &product, nil
}

// Save persists product, snapshotting the pre-image whenever Version or Specs
// changed (spec.md §3 invariant, §5 ordering guarantee (c)).
func (t *productTx) Save(product *models.Product, changeSummary, changedBy string) error {
	now := time.Now()
	product.UpdatedAt = now

	var existing models.Product
	err := t.tx.Where("id = ?", product.ID).First(&existing).Error
	changed := errors.Is(err, gorm.ErrRecordNotFound)
	if err != nil && !changed {
		return fmt.Errorf("failed to load existing product for snapshot check: %w", err)
	}
	if !changed {
		changed = existing.Version != product.Version || !specMapsEqual(existing.Specs, product.Specs)
	}

	if changed && err == nil {
		recordJSON, marshalErr := models.MarshalSnapshotRecord(existing)
		if marshalErr != nil {
			return fmt.Errorf("failed to marshal product snapshot: %w", marshalErr)
		}
		snapshot := &models.ProductVersionSnapshot{
			ID:            uuid.New(),
			ProductID:     existing.ID,
			Version:       existing.Version,
			RecordJSON:    recordJSON,
			ChangeSummary: changeSummary,
			ChangedBy:     changedBy,
			CreatedAt:     now,
		}
		if err := t.tx.Create(snapshot).Error; err != nil {
			return fmt.Errorf("failed to write product version snapshot: %w", err)
		}
	}

	if err := t.tx.Save(product).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	audit := models.AuditLogEntry{
		ID:         uuid.New(),
		EntityType: "product",
		EntityID:   product.ID,
		Action:     "upsert",
		CallerID:   changedBy,
		Detail:     changeSummary,
		CreatedAt:  now,
	}
	if err := t.tx.Create(&audit).Error; err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}

	return nil
}

func specMapsEqual(a, b models.SpecMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || !v.Equal(other, 0) {
			return false
		}
	}
	return true
}

// Upsert runs fn inside a single transaction so the row lock, version
// snapshot, and audit write all commit atomically (spec.md §5 ordering
// guarantees (b)/(c)).
func (s *productStore) Upsert(ctx context.Context, fn func(tx services.ProductTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&productTx{ctx: ctx, tx: tx})
	})
}

func (s *productStore) ListRelationships(ctx context.Context, productID uuid.UUID) ([]models.ProductRelationship, error) {
	var rels []models.ProductRelationship
	err := s.db.WithContext(ctx).
		Where("source_id = ? OR target_id = ?", productID, productID).
		Find(&rels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list product relationships: %w", err)
	}
	return rels, nil
}

func (s *productStore) PutRelationship(ctx context.Context, rel models.ProductRelationship) error {
	if rel.ID == uuid.Nil {
		rel.ID = uuid.New()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&rel).Error; err != nil {
		return fmt.Errorf("failed to put product relationship: %w", err)
	}
	return nil
}

// --- Document store ---

type documentStore struct {
	db *gorm.DB
}

// NewDocumentStore constructs the Catalog Store's document repository.
func NewDocumentStore(db *gorm.DB) services.DocumentStore {
	return &documentStore{db: db}
}

func (s *documentStore) GetByChecksum(ctx context.Context, checksum string) (*models.Document, error) {
	var doc models.Document
	err := s.db.WithContext(ctx).Where("checksum_sha256 = ?", checksum).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document by checksum: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

func (s *documentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (s *documentStore) Update(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (s *documentStore) PutLink(ctx context.Context, link models.DocumentProductLink) error {
	if link.CreatedAt.IsZero() {
		link.CreatedAt = time.Now()
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "document_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"relevance", "extracted_specs", "confidence"}),
		}).
		Create(&link).Error
	if err != nil {
		return fmt.Errorf("failed to put document-product link: %w", err)
	}
	return nil
}

// --- Chunk store ---

type chunkStore struct {
	db *gorm.DB
}

// NewChunkStore constructs the Catalog Store's chunk repository. Vector
// search is computed in Go over every filtered chunk that has an embedding
// (the whole set is loaded, then cut to topK) rather than a native
// pgvector column, since Chunk.Embedding is stored as jsonb (spec.md §3's
// "fixed-dimension vector column" is satisfied at the application layer by
// Embedding.ValidateDimension).
func NewChunkStore(db *gorm.DB) services.ChunkStore {
	return &chunkStore{db: db}
}

func (s *chunkStore) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, chunks []models.Chunk) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).Delete(&models.Chunk{}).Error; err != nil {
			return fmt.Errorf("failed to clear existing chunks: %w", err)
		}
		for i := range chunks {
			if chunks[i].ID == uuid.Nil {
				chunks[i].ID = uuid.New()
			}
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.Create(&chunks).Error; err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
		return nil
	})
}

func (s *chunkStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Chunk, error) {
	var chunks []models.Chunk
	if len(ids) == 0 {
		return chunks, nil
	}
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("failed to get chunks by id: %w", err)
	}
	return chunks, nil
}

func applyFilters(query *gorm.DB, filter models.RetrievalFilters) *gorm.DB {
	if filter.ProductID != nil {
		query = query.Where("product_ids @> ?", pqArrayLiteral([]string{filter.ProductID.String()}))
	}
	for _, cert := range filter.Certifications {
		query = query.Where("spec_names @> ?", pqArrayLiteral([]string{cert}))
	}
	return query
}

func (s *chunkStore) VectorSearch(ctx context.Context, queryVector []float32, topK int, filter models.RetrievalFilters) ([]models.RankedChunk, error) {
	query := applyFilters(s.db.WithContext(ctx).Model(&models.Chunk{}), filter)
	query = query.Where("embedding IS NOT NULL")

	var chunks []models.Chunk
	if err := query.Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("failed to scan chunks for vector search: %w", err)
	}

	type scored struct {
		id    uuid.UUID
		score float64
	}
	scoredChunks := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		sim := cosineSimilarity(queryVector, c.Embedding)
		scoredChunks = append(scoredChunks, scored{id: c.ID, score: sim})
	}
	sort.Slice(scoredChunks, func(i, j int) bool { return scoredChunks[i].score > scoredChunks[j].score })

	if topK > 0 && len(scoredChunks) > topK {
		scoredChunks = scoredChunks[:topK]
	}

	ranked := make([]models.RankedChunk, len(scoredChunks))
	for i, sc := range scoredChunks {
		ranked[i] = models.RankedChunk{ChunkID: sc.id, Rank: i + 1, RawScore: sc.score}
	}
	return ranked, nil
}

func cosineSimilarity(a []float32, b models.Embedding) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func (s *chunkStore) LexicalSearch(ctx context.Context, query string, topK int, filter models.RetrievalFilters) ([]models.RankedChunk, error) {
	q := applyFilters(s.db.WithContext(ctx).Model(&models.Chunk{}), filter)
	q = q.Where("to_tsvector('english', content) @@ plainto_tsquery('english', ?)", query).
		Order(gorm.Expr("ts_rank(to_tsvector('english', content), plainto_tsquery('english', ?)) DESC", query)).
		Select("*, ts_rank(to_tsvector('english', content), plainto_tsquery('english', ?)) AS rank", query)

	if topK > 0 {
		q = q.Limit(topK)
	}

	var chunks []models.Chunk
	if err := q.Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("failed to run lexical search: %w", err)
	}

	ranked := make([]models.RankedChunk, len(chunks))
	for i, c := range chunks {
		ranked[i] = models.RankedChunk{ChunkID: c.ID, Rank: i + 1, RawScore: 1.0 / float64(i+1)}
	}
	return ranked, nil
}

// --- Conflict store ---

type conflictStore struct {
	db *gorm.DB
}

// NewConflictStore constructs the Catalog Store's Spec Conflict repository.
func NewConflictStore(db *gorm.DB) services.ConflictStore {
	return &conflictStore{db: db}
}

func (s *conflictStore) Create(ctx context.Context, conflict *models.SpecConflict) error {
	if conflict.ID == uuid.Nil {
		conflict.ID = uuid.New()
	}
	if conflict.CreatedAt.IsZero() {
		conflict.CreatedAt = time.Now()
	}
	if conflict.Resolution == "" {
		conflict.Resolution = models.ConflictPending
	}
	if err := s.db.WithContext(ctx).Create(conflict).Error; err != nil {
		return fmt.Errorf("failed to create spec conflict: %w", err)
	}
	return nil
}

func (s *conflictStore) GetByID(ctx context.Context, id uuid.UUID) (*models.SpecConflict, error) {
	var conflict models.SpecConflict
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&conflict).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get spec conflict: %w", err)
	}
	return &conflict, nil
}

func (s *conflictStore) List(ctx context.Context, filter models.ConflictListFilter) ([]models.SpecConflict, error) {
	query := s.db.WithContext(ctx).Model(&models.SpecConflict{}).Where("resolution = ?", models.ConflictPending)
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size < 1 {
		size = 20
	}

	var conflicts []models.SpecConflict
	err := query.Offset((page - 1) * size).Limit(size).Order("created_at DESC").Find(&conflicts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list spec conflicts: %w", err)
	}
	return conflicts, nil
}

// Resolve enforces the pending -> terminal lifecycle exactly once
// (spec.md §8 testable property 6): the row lock plus the pending-only WHERE
// clause on the final update means a second resolve call affects zero rows.
// When the resolution actually determines a value (accept_new or
// manual_override), the product's spec is updated in the same transaction as
// the conflict row, mirroring productTx.Save's version/snapshot/audit path
// (spec.md §4.7: resolving a conflict must update the product, not just the
// conflict record).
func (s *conflictStore) Resolve(ctx context.Context, id uuid.UUID, resolution models.ConflictResolution, overrideValue *models.SpecValue, resolvedAt time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(gtx *gorm.DB) error {
		var conflict models.SpecConflict
		err := gtx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).First(&conflict).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("conflict %s not found", id)
			}
			return fmt.Errorf("failed to lock spec conflict: %w", err)
		}
		if conflict.Resolution != models.ConflictPending {
			return fmt.Errorf("conflict %s is not pending", id)
		}

		var resolvedValue *models.SpecValue
		switch resolution {
		case models.ConflictAcceptNew:
			v := conflict.NewValue
			resolvedValue = &v
		case models.ConflictManualOverride:
			if overrideValue == nil {
				return fmt.Errorf("manual_override requires an override value")
			}
			resolvedValue = overrideValue
		}

		if resolvedValue != nil {
			tx := &productTx{ctx: ctx, tx: gtx}
			product, err := tx.LockByID(conflict.ProductID)
			if err != nil {
				return fmt.Errorf("failed to lock product for conflict resolution: %w", err)
			}
			if product == nil {
				return fmt.Errorf("product %s not found for conflict %s", conflict.ProductID, id)
			}
			if product.Specs == nil {
				product.Specs = models.SpecMap{}
			}
			if existing, ok := product.Specs[conflict.SpecName]; !ok || !existing.Equal(*resolvedValue, 0) {
				product.Specs[conflict.SpecName] = *resolvedValue
				product.Version++
				applyFixedColumns(product)
				summary := fmt.Sprintf("conflict_resolve:%s:%s", resolution, conflict.SpecName)
				if err := tx.Save(product, summary, "conflict-resolution"); err != nil {
					return err
				}
			}
		}

		result := gtx.Model(&models.SpecConflict{}).
			Where("id = ? AND resolution = ?", id, models.ConflictPending).
			Updates(map[string]any{
				"resolution":     resolution,
				"resolved_value": resolvedValue,
				"resolved_at":    resolvedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to resolve spec conflict: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("conflict %s is not pending", id)
		}
		return nil
	})
}

// --- Audit store ---

type auditStore struct {
	db *gorm.DB
}

// NewAuditStore constructs the append-only Audit Log repository: only
// Create/List are exposed, enforcing the no-update/no-delete invariant at
// the type level (spec.md §3).
func NewAuditStore(db *gorm.DB) services.AuditStore {
	return &auditStore{db: db}
}

func (s *auditStore) Record(ctx context.Context, entry models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}

func (s *auditStore) ListForEntity(ctx context.Context, entityType string, entityID uuid.UUID) ([]models.AuditLogEntry, error) {
	var entries []models.AuditLogEntry
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	return entries, nil
}

// --- Job store ---

type jobStore struct {
	db *gorm.DB
}

// NewJobStore constructs the Ingestion Job repository.
func NewJobStore(db *gorm.DB) services.JobStore {
	return &jobStore{db: db}
}

func (s *jobStore) Create(ctx context.Context, job *models.IngestionJob) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(job).Error; err != nil {
		return fmt.Errorf("failed to create ingestion job: %w", err)
	}
	return nil
}

func (s *jobStore) GetByID(ctx context.Context, id uuid.UUID) (*models.IngestionJob, error) {
	var job models.IngestionJob
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ingestion job: %w", err)
	}
	return &job, nil
}

func (s *jobStore) Update(ctx context.Context, job *models.IngestionJob) error {
	job.UpdatedAt = time.Now()
	if err := s.db.WithContext(ctx).Save(job).Error; err != nil {
		return fmt.Errorf("failed to update ingestion job: %w", err)
	}
	return nil
}

// --- Registry store ---

type registryStore struct {
	db *gorm.DB
}

// NewRegistryStore constructs the Spec Registry / Model Pattern / Equivalence
// Rule repository consumed by registryService, modelResolverService, and the
// Recommendation Engine.
func NewRegistryStore(db *gorm.DB) services.RegistryStore {
	return &registryStore{db: db}
}

func (s *registryStore) GetEntry(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error) {
	var entry models.SpecRegistryEntry
	err := s.db.WithContext(ctx).Where("canonical_name = ?", canonicalName).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get registry entry: %w", err)
	}
	return &entry, nil
}

func (s *registryStore) ResolveSynonym(ctx context.Context, normalizedLabel string) (*models.SpecRegistryEntry, error) {
	var entry models.SpecRegistryEntry
	err := s.db.WithContext(ctx).
		Where("canonical_name = ? OR synonyms @> ?", normalizedLabel, pqArrayLiteral([]string{normalizedLabel})).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve synonym: %w", err)
	}
	return &entry, nil
}

func (s *registryStore) PutEntry(ctx context.Context, entry *models.SpecRegistryEntry) error {
	now := time.Now()
	entry.UpdatedAt = now
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "canonical_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "data_type", "unit", "unit_system", "family_scope", "synonyms", "unit_conversions", "allowed_values", "is_filterable", "is_comparable", "is_searchable", "is_critical", "sort_order", "auto_discovered", "approved", "updated_at"}),
		}).
		Create(entry).Error
	if err != nil {
		return fmt.Errorf("failed to put registry entry: %w", err)
	}
	return nil
}

func (s *registryStore) ListActivePatterns(ctx context.Context, brandHint string) ([]models.ModelPattern, error) {
	query := s.db.WithContext(ctx).Where("active = ?", true)
	if brandHint != "" {
		query = query.Where("brand = ?", brandHint)
	}
	var patterns []models.ModelPattern
	if err := query.Order("priority DESC").Find(&patterns).Error; err != nil {
		return nil, fmt.Errorf("failed to list model patterns: %w", err)
	}
	return patterns, nil
}

func (s *registryStore) GetEquivalenceRule(ctx context.Context, familyCode string) (*models.EquivalenceRule, error) {
	var rule models.EquivalenceRule
	err := s.db.WithContext(ctx).Where("family_code = ?", familyCode).First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get equivalence rule: %w", err)
	}
	return &rule, nil
}

type profileStore struct {
	db *gorm.DB
}

// NewProfileStore constructs the Use Case Profile repository consumed by the
// Recommendation Engine.
func NewProfileStore(db *gorm.DB) services.RecommendationStore {
	return &profileStore{db: db}
}

func (s *profileStore) GetProfile(ctx context.Context, name string) (*models.UseCaseProfile, error) {
	var profile models.UseCaseProfile
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get use case profile: %w", err)
	}
	return &profile, nil
}

func (s *profileStore) ListProfiles(ctx context.Context) ([]models.UseCaseProfile, error) {
	var profiles []models.UseCaseProfile
	if err := s.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to list use case profiles: %w", err)
	}
	return profiles, nil
}
