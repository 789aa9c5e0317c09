package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ProductStatus is the lifecycle state of a product record (spec.md §3).
type ProductStatus string

const (
	ProductStatusDraft         ProductStatus = "draft"
	ProductStatusPendingReview ProductStatus = "pending_review"
	ProductStatusActive        ProductStatus = "active"
	ProductStatusDiscontinued  ProductStatus = "discontinued"
	ProductStatusDeprecated    ProductStatus = "deprecated"
)

// Product is the canonical catalog record (spec.md §3). model_number+version are
// jointly unique; every key in Specs must be a canonical_name present in the
// Registry, and the fixed universal columns are denormalized projections of the
// same fields under Specs.
type Product struct {
	ID             uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	ModelNumber    string         `json:"model_number" gorm:"size:64;not null;uniqueIndex:idx_model_version"`
	Version        int           `json:"version" gorm:"not null;uniqueIndex:idx_model_version"`
	Brand          string         `json:"brand" gorm:"size:32;index"`
	Family         string         `json:"family" gorm:"size:32;index"`
	ProductLine    string         `json:"product_line"`
	ControllerTier string         `json:"controller_tier"`
	Status         ProductStatus  `json:"status" gorm:"size:32;index"`

	// Fixed universal columns (denormalized projections of Specs).
	StorageCapacityCuFt *float64 `json:"storage_capacity_cuft,omitempty"`
	TempRangeMinC        *float64 `json:"temp_range_min_c,omitempty"`
	TempRangeMaxC        *float64 `json:"temp_range_max_c,omitempty"`
	DoorCount            *int     `json:"door_count,omitempty"`
	DoorType             string   `json:"door_type,omitempty"`
	ShelfCount           *int     `json:"shelf_count,omitempty"`
	Refrigerant          string   `json:"refrigerant,omitempty"`
	VoltageV             *float64 `json:"voltage_v,omitempty"`
	Amperage             *float64 `json:"amperage,omitempty"`
	WeightLbs            *float64 `json:"weight_lbs,omitempty"`
	WidthIn              *float64 `json:"width_in,omitempty"`
	HeightIn             *float64 `json:"height_in,omitempty"`
	DepthIn              *float64 `json:"depth_in,omitempty"`

	Specs          SpecMap        `json:"specs" gorm:"type:jsonb"`
	Certifications pq.StringArray `json:"certifications" gorm:"type:text[]"`

	LaunchedAt      *time.Time `json:"launched_at,omitempty"`
	DiscontinuedAt  *time.Time `json:"discontinued_at,omitempty"`
	Revision        string     `json:"revision"`
	Description     string     `json:"description"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Product) TableName() string { return "products" }

// ProductVersionSnapshot is an append-only pre-image written in the same
// transaction as any product mutation (spec.md §3, §5 ordering guarantee (c)).
type ProductVersionSnapshot struct {
	ID            uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	ProductID     uuid.UUID      `json:"product_id" gorm:"type:uuid;index;not null"`
	Version       int            `json:"version" gorm:"not null"`
	RecordJSON    datatypesJSON  `json:"record_json" gorm:"type:jsonb"`
	ChangeSummary string         `json:"change_summary"`
	ChangedBy     string         `json:"changed_by"`
	CreatedAt     time.Time      `json:"created_at"`
}

func (ProductVersionSnapshot) TableName() string { return "product_version_snapshots" }

// datatypesJSON is a thin jsonb-backed raw-message type, avoiding re-marshaling a
// strongly typed Product into the snapshot and back.
type datatypesJSON json.RawMessage

func (j datatypesJSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return []byte(j), nil
}

func (j *datatypesJSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*j = datatypesJSON(append([]byte(nil), v...))
	case string:
		*j = datatypesJSON(v)
	}
	return nil
}

// MarshalSnapshotRecord marshals any value into a ProductVersionSnapshot's
// RecordJSON column; exported so the Catalog Store can build a snapshot
// without needing to name the unexported datatypesJSON type itself.
func MarshalSnapshotRecord(v interface{}) (datatypesJSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypesJSON(b), nil
}

// RelationshipKind enumerates the directed product-relationship edge kinds
// (spec.md §3). Cycles are allowed only for the symmetric kinds.
type RelationshipKind string

const (
	RelationSupersedes   RelationshipKind = "supersedes"
	RelationEquivalentTo RelationshipKind = "equivalent_to"
	RelationCompatibleWith RelationshipKind = "compatible_with"
	RelationAccessoryFor RelationshipKind = "accessory_for"
	RelationVariantOf    RelationshipKind = "variant_of"
	RelationRebrandOf    RelationshipKind = "rebrand_of"
)

// IsSymmetric reports whether cycles are permitted for this relationship kind.
func (k RelationshipKind) IsSymmetric() bool {
	return k == RelationEquivalentTo || k == RelationCompatibleWith
}

// ProductRelationship is a directed edge between two products (spec.md §3).
type ProductRelationship struct {
	ID           uuid.UUID        `json:"id" gorm:"primaryKey;type:uuid"`
	SourceID     uuid.UUID        `json:"source_id" gorm:"type:uuid;index;not null"`
	TargetID     uuid.UUID        `json:"target_id" gorm:"type:uuid;index;not null"`
	Kind         RelationshipKind `json:"kind" gorm:"size:32;not null"`
	Confidence   float64          `json:"confidence"`
	AutoDetected bool             `json:"auto_detected"`
	CreatedAt    time.Time        `json:"created_at"`
}

func (ProductRelationship) TableName() string { return "product_relationships" }

// --- Request/response DTOs (HTTP adapter shapes, spec.md §6) ---

// ProductListFilter mirrors the filter shapes spec.md §6 lists: brand, family,
// capacity range, temperature range, door type, certifications (contains-all),
// free-text.
type ProductListFilter struct {
	Brand              string   `form:"brand" json:"brand"`
	Family             string   `form:"family" json:"family"`
	CapacityMin        *float64 `form:"capacity_min" json:"capacity_min"`
	CapacityMax        *float64 `form:"capacity_max" json:"capacity_max"`
	TempRangeMinC      *float64 `form:"temp_range_min_c" json:"temp_range_min_c"`
	TempRangeMaxC      *float64 `form:"temp_range_max_c" json:"temp_range_max_c"`
	DoorType           string   `form:"door_type" json:"door_type"`
	Certifications     []string `form:"certifications" json:"certifications"`
	Query              string   `form:"q" json:"q"`
	Status             string   `form:"status" json:"status"`
	Page               int      `form:"page" json:"page"`
	PageSize           int      `form:"page_size" json:"page_size"`
}

// ProductListResponse is the paginated list/filter response.
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// CompareRequest is the compare endpoint's request shape (spec.md §6).
type CompareRequest struct {
	ProductIDs          []uuid.UUID `json:"product_ids" validate:"required,min=2,max=4"`
	HighlightDifferences bool       `json:"highlight_differences"`
}

// CompareRow is one aligned spec row across the compared products.
type CompareRow struct {
	CanonicalName string             `json:"canonical_name"`
	DisplayName   string             `json:"display_name"`
	Values        map[string]*SpecValue `json:"values"`
	Differs       bool               `json:"differs"`
}

// CompareResponse is the aligned spec table response.
type CompareResponse struct {
	ProductIDs []uuid.UUID  `json:"product_ids"`
	Rows       []CompareRow `json:"rows"`
}

// EquivalentsResponse lists products reachable via a bounded transitive closure
// of ProductRelationship edges (spec.md §9's bounded-depth traversal).
type EquivalentsResponse struct {
	ProductID   uuid.UUID              `json:"product_id"`
	Equivalents []EquivalentEntry      `json:"equivalents"`
}

// EquivalentEntry is one hop in the equivalents traversal.
type EquivalentEntry struct {
	ProductID uuid.UUID        `json:"product_id"`
	ModelNumber string         `json:"model_number"`
	Kind      RelationshipKind `json:"kind"`
	Depth     int              `json:"depth"`
}
