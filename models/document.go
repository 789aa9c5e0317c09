package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocType enumerates the classifier's output categories (spec.md §2, §4.2).
type DocType string

const (
	DocTypeProductDataSheet     DocType = "product_data_sheet"
	DocTypeCutSheet             DocType = "cut_sheet"
	DocTypeFeatureList          DocType = "feature_list"
	DocTypePerformanceDataSheet DocType = "performance_data_sheet"
	DocTypeDimensionalDrawing   DocType = "dimensional_drawing"
	DocTypeProductImage         DocType = "product_image"
	DocTypeSelectionGuide       DocType = "selection_guide"
	DocTypeInstallManual        DocType = "install_manual"
	DocTypeMarketing            DocType = "marketing"
	DocTypeCatalog              DocType = "catalog"
	DocTypeOther                DocType = "other"
)

// DocumentStatus is the ingestion lifecycle state of a document (spec.md §3).
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
	DocumentStatusSuperseded DocumentStatus = "superseded"
	DocumentStatusQuarantined DocumentStatus = "quarantined"
)

// ProcessingLogEntry is one stage-result record appended during ingestion.
type ProcessingLogEntry struct {
	Stage     string    `json:"stage"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcessingLog is the ordered, append-only list of ProcessingLogEntry for a
// document, stored as jsonb (mirrors the teacher's custom Value()/Scan() pattern
// on models/agent.go's AgentLLMConfig, generalized to a slice).
type ProcessingLog []ProcessingLogEntry

func (p ProcessingLog) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ProcessingLog) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Document is an ingested file's record (spec.md §3). checksum_sha256 is the
// idempotency key: a second upload of identical bytes is a no-op returning the
// existing document.
type Document struct {
	ID             uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	Filename       string         `json:"filename"`
	DocType        DocType        `json:"doc_type" gorm:"size:32"`
	MimeType       string         `json:"mime_type"`
	SourceURI      string         `json:"source_uri"`
	ChecksumSHA256 string         `json:"checksum_sha256" gorm:"size:64;uniqueIndex;not null"`
	PageCount      int            `json:"page_count"`
	ExtractedText  string         `json:"extracted_text" gorm:"type:text"`
	Brand          string         `json:"brand" gorm:"size:32"`
	Status         DocumentStatus `json:"status" gorm:"size:32;index"`
	ProcessingLog  ProcessingLog  `json:"processing_log" gorm:"type:jsonb"`
	Revision       string         `json:"revision"`
	JobID          *uuid.UUID     `json:"job_id,omitempty" gorm:"type:uuid;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Document) TableName() string { return "documents" }

// AppendLog appends a processing-log entry; callers pass the entry's Timestamp
// explicitly (never time.Now() inside models, to keep this package pure).
func (d *Document) AppendLog(entry ProcessingLogEntry) {
	d.ProcessingLog = append(d.ProcessingLog, entry)
}

// DocumentRelevance classifies how a document relates to a product it mentions.
type DocumentRelevance string

const (
	RelevancePrimary   DocumentRelevance = "primary"
	RelevanceMentioned DocumentRelevance = "mentioned"
	RelevanceAccessory DocumentRelevance = "accessory"
	RelevanceRelated   DocumentRelevance = "related"
)

// DocumentProductLink is the provenance edge the Conflict Engine consults
// (spec.md §3).
type DocumentProductLink struct {
	DocumentID     uuid.UUID         `json:"document_id" gorm:"primaryKey;type:uuid"`
	ProductID      uuid.UUID         `json:"product_id" gorm:"primaryKey;type:uuid"`
	Relevance      DocumentRelevance `json:"relevance" gorm:"size:16"`
	ExtractedSpecs SpecMap           `json:"extracted_specs" gorm:"type:jsonb"`
	Confidence     float64           `json:"confidence"`
	CreatedAt      time.Time         `json:"created_at"`
}

func (DocumentProductLink) TableName() string { return "document_product_links" }

// IngestRequest is the multipart ingest endpoint's accepted-file manifest
// (spec.md §6); the actual file bytes travel as multipart parts, not JSON.
type IngestRequest struct {
	BrandHint string `form:"brand_hint" json:"brand_hint"`
}

// IngestResponse is returned immediately on job submission (spec.md §6).
type IngestResponse struct {
	JobID    uuid.UUID `json:"job_id"`
	Accepted []string  `json:"accepted"`
	Rejected []RejectedFile `json:"rejected"`
}

// RejectedFile records a file that could not be accepted into the job.
type RejectedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}
