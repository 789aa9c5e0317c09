package models

import (
	"database/sql/driver"
	"encoding/json"
)

// TargetBand is the [min,max] range a use-case profile considers "ideal" for a
// spec; the feature score decays linearly to 0 at twice the band width
// (spec.md §4.11 step 2).
type TargetBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns the band's width, used to compute the linear decay distance.
func (b TargetBand) Width() float64 {
	return b.Max - b.Min
}

// SpecWeight is one profile-declared scoring term (spec.md §4.11).
type SpecWeight struct {
	SpecName   string     `json:"spec_name"`
	Weight     float64    `json:"weight"`
	TargetBand TargetBand `json:"target_band"`
	Required   bool       `json:"required"`
}

// SpecWeights is a jsonb-backed list of SpecWeight.
type SpecWeights []SpecWeight

func (w SpecWeights) Value() (driver.Value, error) { return json.Marshal(w) }
func (w *SpecWeights) Scan(value interface{}) error { return scanJSON(value, w) }

// UseCaseProfile is a named scoring template for the Recommendation Engine
// (spec.md §3 GLOSSARY, §4.11).
type UseCaseProfile struct {
	Name      string      `json:"name" gorm:"primaryKey;size:64"`
	Synonyms  pqStringList `json:"synonyms" gorm:"type:jsonb"`
	Weights   SpecWeights `json:"weights" gorm:"type:jsonb"`
}

func (UseCaseProfile) TableName() string { return "use_case_profiles" }

// RecommendConstraints are the hard filters applied before scoring
// (spec.md §4.11 step 1).
type RecommendConstraints struct {
	Brand                 string   `json:"brand,omitempty"`
	Family                string   `json:"family,omitempty"`
	CapacityMin           *float64 `json:"capacity_min,omitempty"`
	CapacityMax           *float64 `json:"capacity_max,omitempty"`
	CertificationsRequired []string `json:"certifications_required,omitempty"`
}

// RecommendRequest is the recommend endpoint's request shape (spec.md §6).
type RecommendRequest struct {
	UseCase     string               `json:"use_case,omitempty"`
	UseCaseText string               `json:"use_case_text,omitempty"`
	Constraints RecommendConstraints `json:"constraints"`
	MaxResults  int                  `json:"max_results"`
}

// ScoreBreakdown explains one spec's contribution to a candidate's total score
// (spec.md §4.11 step 4: "so callers can render 'why this was chosen'").
type ScoreBreakdown struct {
	SpecName    string  `json:"spec_name"`
	Weight      float64 `json:"weight"`
	FeatureScore float64 `json:"feature_score"`
	Contribution float64 `json:"contribution"`
}

// RecommendedProduct is one ranked result with its per-spec score breakdown.
type RecommendedProduct struct {
	Product    Product          `json:"product"`
	Score      float64          `json:"score"`
	Breakdown  []ScoreBreakdown `json:"breakdown"`
}

// RecommendResponse is the recommend endpoint's response shape.
type RecommendResponse struct {
	Results    []RecommendedProduct `json:"results"`
	Diagnostic string               `json:"diagnostic,omitempty"`
}
