package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// SpecDataType is the declared shape of a canonical spec's value (spec.md §3).
type SpecDataType string

const (
	SpecDataTypeNumeric SpecDataType = "numeric"
	SpecDataTypeText    SpecDataType = "text"
	SpecDataTypeBoolean SpecDataType = "boolean"
	SpecDataTypeEnum    SpecDataType = "enum"
	SpecDataTypeRange   SpecDataType = "range"
	SpecDataTypeList    SpecDataType = "list"
)

// UnitSystem classifies a spec's unit family.
type UnitSystem string

const (
	UnitSystemImperial UnitSystem = "imperial"
	UnitSystemMetric   UnitSystem = "metric"
	UnitSystemNone     UnitSystem = "none"
)

// AllowedValues constrains a Registry entry: a closed set for enums, a numeric
// range for numeric types. Stored as jsonb.
type AllowedValues struct {
	EnumValues []string `json:"enum_values,omitempty"`
	Min        *float64 `json:"min,omitempty"`
	Max        *float64 `json:"max,omitempty"`
}

func (a AllowedValues) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AllowedValues) Scan(value interface{}) error {
	return scanJSON(value, a)
}

// UnitConversions maps an alternate-unit label to either a multiplicative factor
// (encoded as a decimal string, e.g. "2.54") or a named conversion function
// (e.g. "convert_f_to_c"), per spec.md §4.6's "small fixed dispatch table" design.
type UnitConversions map[string]string

func (u UnitConversions) Value() (driver.Value, error) {
	return json.Marshal(u)
}

func (u *UnitConversions) Scan(value interface{}) error {
	return scanJSON(value, u)
}

// SpecRegistryEntry is the canonical spec catalog entry (spec.md §3, §4.6).
// canonical_name is the single write-key; synonyms feed mapping only.
type SpecRegistryEntry struct {
	CanonicalName   string          `json:"canonical_name" gorm:"primaryKey;size:128"`
	DisplayName     string          `json:"display_name"`
	DataType        SpecDataType    `json:"data_type" gorm:"size:16;not null"`
	Unit            string          `json:"unit"`
	UnitSystem      UnitSystem      `json:"unit_system" gorm:"size:16"`
	FamilyScope     pq.StringArray  `json:"family_scope" gorm:"type:text[]"`
	Synonyms        pq.StringArray  `json:"synonyms" gorm:"type:text[]"`
	UnitConversions UnitConversions `json:"unit_conversions" gorm:"type:jsonb"`
	AllowedValues   AllowedValues   `json:"allowed_values" gorm:"type:jsonb"`
	IsFilterable    bool            `json:"is_filterable"`
	IsComparable    bool            `json:"is_comparable"`
	IsSearchable    bool            `json:"is_searchable"`
	IsCritical      bool            `json:"is_critical"`
	SortOrder       int             `json:"sort_order"`
	AutoDiscovered  bool            `json:"auto_discovered"`
	Approved        bool            `json:"approved"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (SpecRegistryEntry) TableName() string { return "spec_registry_entries" }

// MatchesFamily implements the "empty family_scope matches every family" boundary
// behavior from spec.md §8.
func (e SpecRegistryEntry) MatchesFamily(familyCode string) bool {
	if len(e.FamilyScope) == 0 {
		return true
	}
	for _, f := range e.FamilyScope {
		if f == familyCode {
			return true
		}
	}
	return false
}

// SpecValueKind discriminates the tagged-variant spec value described in
// SPEC_FULL.md §9 (Design Notes: "Dynamic dictionaries of specs").
type SpecValueKind string

const (
	SpecValueNumeric SpecValueKind = "numeric"
	SpecValueText    SpecValueKind = "text"
	SpecValueBoolean SpecValueKind = "boolean"
	SpecValueEnum    SpecValueKind = "enum"
	SpecValueRange   SpecValueKind = "range"
	SpecValueList    SpecValueKind = "list"
)

// SpecValue is the tagged-variant replacement for a free-form string->any map;
// the Kind is fixed by the owning Registry entry's DataType at write time.
type SpecValue struct {
	Kind        SpecValueKind `json:"kind"`
	NumericVal  float64       `json:"numeric_val,omitempty"`
	Unit        string        `json:"unit,omitempty"`
	TextVal     string        `json:"text_val,omitempty"`
	BoolVal     bool          `json:"bool_val,omitempty"`
	EnumVal     string        `json:"enum_val,omitempty"`
	RangeMin    float64       `json:"range_min,omitempty"`
	RangeMax    float64       `json:"range_max,omitempty"`
	ListVal     []string      `json:"list_val,omitempty"`
	ParseFailed bool          `json:"parse_failed,omitempty"`
	RawText     string        `json:"raw_text,omitempty"`
}

// Value/Scan let SpecValue back a standalone jsonb column (e.g. SpecConflict's
// existing_value/new_value), independent of its use as SpecMap's element type.
func (v SpecValue) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *SpecValue) Scan(value interface{}) error {
	return scanJSON(value, v)
}

// SpecMap is a canonical_name -> SpecValue dictionary, stored as jsonb.
type SpecMap map[string]SpecValue

func (m SpecMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *SpecMap) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// Equal implements the type-rule equality the Conflict Engine uses (spec.md §4.7):
// numeric within tolerance, text case-fold, list/set as multiset, boolean exact.
func (v SpecValue) Equal(other SpecValue, tolerance float64) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case SpecValueNumeric:
		a, b := v.NumericVal, other.NumericVal
		denom := maxAbs3(a, b, 1e-9)
		return absFloat(a-b)/denom <= tolerance
	case SpecValueText, SpecValueEnum:
		return foldEqual(v.textForCompare(), other.textForCompare())
	case SpecValueBoolean:
		return v.BoolVal == other.BoolVal
	case SpecValueList:
		return multisetEqual(v.ListVal, other.ListVal)
	case SpecValueRange:
		return v.RangeMin == other.RangeMin && v.RangeMax == other.RangeMax
	default:
		return v.RawText == other.RawText
	}
}

func (v SpecValue) textForCompare() string {
	if v.Kind == SpecValueEnum {
		return v.EnumVal
	}
	return v.TextVal
}
