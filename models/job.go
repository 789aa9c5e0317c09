package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an ingestion job (spec.md §3).
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobMetadata is a small free-form bag for orchestrator bookkeeping, stored as
// jsonb.
type JobMetadata map[string]any

func (m JobMetadata) Value() (driver.Value, error) { return json.Marshal(m) }
func (m *JobMetadata) Scan(value interface{}) error { return scanJSON(value, m) }

// IngestionJob aggregates per-file counters for one ingest submission
// (spec.md §3, §4.12).
type IngestionJob struct {
	ID            uuid.UUID   `json:"id" gorm:"primaryKey;type:uuid"`
	Status        JobStatus   `json:"status" gorm:"size:16;index"`
	TotalFiles    int         `json:"total_files"`
	ProcessedFiles int        `json:"processed_files"`
	NewProducts   int         `json:"new_products"`
	UpdatedProducts int       `json:"updated_products"`
	FailedFiles   int         `json:"failed_files"`
	Metadata      JobMetadata `json:"metadata" gorm:"type:jsonb"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (IngestionJob) TableName() string { return "ingestion_jobs" }

// JobStatusResponse is the GET /jobs/:id response shape.
type JobStatusResponse struct {
	Job IngestionJob `json:"job"`
}
