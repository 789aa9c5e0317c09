package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ToleranceMap maps a spec_name to its fractional equality tolerance
// (spec.md §3, §4.7; default 0.05 when a spec has no entry).
type ToleranceMap map[string]float64

func (t ToleranceMap) Value() (driver.Value, error) { return json.Marshal(t) }
func (t *ToleranceMap) Scan(value interface{}) error { return scanJSON(value, t) }

// EquivalenceRule is the per-family configuration governing near-equivalent
// ranking and conflict tolerance (spec.md §3).
type EquivalenceRule struct {
	FamilyCode      string       `json:"family_code" gorm:"primaryKey;size:32"`
	RequiredMatch   pqStringList `json:"required_match" gorm:"type:jsonb"`
	ToleranceMap    ToleranceMap `json:"tolerance_map" gorm:"type:jsonb"`
	PrioritySpecs   pqStringList `json:"priority_specs" gorm:"type:jsonb"`
}

func (EquivalenceRule) TableName() string { return "equivalence_rules" }

// ToleranceFor returns the per-spec tolerance, defaulting to defaultTolerance
// when the spec has no explicit entry (spec.md §9 Open Question decision).
func (r EquivalenceRule) ToleranceFor(specName string, defaultTolerance float64) float64 {
	if r.ToleranceMap == nil {
		return defaultTolerance
	}
	if t, ok := r.ToleranceMap[specName]; ok {
		return t
	}
	return defaultTolerance
}

// pqStringList is a jsonb-backed ordered string list, used where ordering
// matters (priority_specs, required_match) and a native text[] would lose it
// only if Postgres didn't preserve array order — it does, but jsonb keeps the
// encoding uniform with the rest of this file's config-shaped fields.
type pqStringList []string

func (l pqStringList) Value() (driver.Value, error) { return json.Marshal(l) }
func (l *pqStringList) Scan(value interface{}) error { return scanJSON(value, l) }
