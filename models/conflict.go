package models

import (
	"time"

	"github.com/google/uuid"
)

// ConflictSeverity classifies a pending spec conflict (spec.md §3, §4.7).
// Only `critical` and `medium` are assigned by the Conflict Engine per the
// Open Question decision recorded in SPEC_FULL.md §9; `low`/`high` remain valid
// for manual overrides.
type ConflictSeverity string

const (
	ConflictSeverityLow      ConflictSeverity = "low"
	ConflictSeverityMedium   ConflictSeverity = "medium"
	ConflictSeverityHigh     ConflictSeverity = "high"
	ConflictSeverityCritical ConflictSeverity = "critical"
)

// ConflictResolution is the terminal (or pending) state of a Spec Conflict.
type ConflictResolution string

const (
	ConflictPending         ConflictResolution = "pending"
	ConflictKeepExisting    ConflictResolution = "keep_existing"
	ConflictAcceptNew       ConflictResolution = "accept_new"
	ConflictManualOverride  ConflictResolution = "manual_override"
	ConflictDismissed       ConflictResolution = "dismissed"
)

// IsTerminal reports whether this resolution ends the conflict's lifecycle.
func (r ConflictResolution) IsTerminal() bool {
	return r != ConflictPending
}

// SpecConflict is an inconsistent spec value the Conflict Engine could not
// auto-resolve (spec.md §3, §4.7). Lifecycle: pending -> terminal, exactly once.
type SpecConflict struct {
	ID            uuid.UUID          `json:"id" gorm:"primaryKey;type:uuid"`
	ProductID     uuid.UUID          `json:"product_id" gorm:"type:uuid;index;not null"`
	SpecName      string             `json:"spec_name" gorm:"size:128;not null"`
	ExistingValue SpecValue          `json:"existing_value" gorm:"type:jsonb"`
	NewValue      SpecValue          `json:"new_value" gorm:"type:jsonb"`
	SourceDocID   uuid.UUID          `json:"source_doc_id" gorm:"type:uuid"`
	ExistingDocID uuid.UUID          `json:"existing_doc_id" gorm:"type:uuid"`
	Severity      ConflictSeverity   `json:"severity" gorm:"size:16"`
	Resolution    ConflictResolution `json:"resolution" gorm:"size:32;index"`
	ResolvedValue *SpecValue         `json:"resolved_value,omitempty" gorm:"type:jsonb"`
	ResolvedAt    *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

func (SpecConflict) TableName() string { return "spec_conflicts" }

// ConflictResolveRequest is the resolve-conflict endpoint's request body
// (spec.md §6: "Conflicts: ... resolve with {resolution, override_value?}").
type ConflictResolveRequest struct {
	Resolution    ConflictResolution `json:"resolution" validate:"required"`
	OverrideValue *SpecValue         `json:"override_value,omitempty"`
}

// ConflictListFilter filters the pending-conflicts listing.
type ConflictListFilter struct {
	ProductID *uuid.UUID       `form:"product_id"`
	Severity  ConflictSeverity `form:"severity"`
	Page      int              `form:"page"`
	PageSize  int              `form:"page_size"`
}
