package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLogEntry is append-only and immutable once written; enforced by the
// storage layer (no update, no delete) per spec.md §3. See
// services/impl/catalog_store.go's auditStore, which exposes only
// Record/ListForEntity.
type AuditLogEntry struct {
	ID         uuid.UUID `json:"id" gorm:"primaryKey;type:uuid"`
	EntityType string    `json:"entity_type" gorm:"size:32;index"`
	EntityID   uuid.UUID `json:"entity_id" gorm:"type:uuid;index"`
	Action     string    `json:"action" gorm:"size:64"`
	CallerID   string    `json:"caller_id"`
	Role       string    `json:"role"`
	Detail     string    `json:"detail" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLogEntry) TableName() string { return "audit_log_entries" }
