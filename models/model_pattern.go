package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/google/uuid"
)

// FieldMap maps a regex capture-group index to the canonical_name it decodes
// (spec.md §3).
type FieldMap map[string]string

func (f FieldMap) Value() (driver.Value, error) { return json.Marshal(f) }
func (f *FieldMap) Scan(value interface{}) error { return scanJSON(value, f) }

// ValueMap is the per-group mapping of a captured literal to a canonical enum
// value (spec.md §3), keyed "<group>:<literal>" -> canonical value.
type ValueMap map[string]string

func (v ValueMap) Value() (driver.Value, error) { return json.Marshal(v) }
func (v *ValueMap) Scan(value interface{}) error { return scanJSON(value, v) }

// ModelPattern is the sole source of brand-model decoding (spec.md §3, §4.3).
// Patterns are checked in descending Priority.
type ModelPattern struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	Brand          string    `json:"brand" gorm:"size:32;index"`
	PatternRegex   string    `json:"pattern_regex" gorm:"not null"`
	Family         string    `json:"family" gorm:"size:32"`
	ProductLine    string    `json:"product_line"`
	ControllerTier string    `json:"controller_tier"`
	FieldMap       FieldMap  `json:"field_map" gorm:"type:jsonb"`
	ValueMap       ValueMap  `json:"value_map" gorm:"type:jsonb"`
	Priority       int       `json:"priority" gorm:"index"`
	Active         bool      `json:"active" gorm:"default:true"`
}

func (ModelPattern) TableName() string { return "model_patterns" }

// ModelCandidate is one decoded match the Model Resolver produces (spec.md §4.3).
type ModelCandidate struct {
	ModelNumber    string
	Family         string
	ProductLine    string
	ControllerTier string
	DecodedFields  map[string]string
}
