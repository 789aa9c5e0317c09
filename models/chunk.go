package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ChunkType enumerates the structure-aware chunking categories (spec.md §3, §4.9).
type ChunkType string

const (
	ChunkTypeText            ChunkType = "text"
	ChunkTypeTable           ChunkType = "table"
	ChunkTypeSpecBlock       ChunkType = "spec_block"
	ChunkTypeHeader          ChunkType = "header"
	ChunkTypePerformanceData ChunkType = "performance_data"
	ChunkTypeDimensional     ChunkType = "dimensional"
	ChunkTypeDescription     ChunkType = "description"
)

// Embedding is a fixed-dimension vector; EmbeddingDim is the deployment constant
// from spec.md §3 ("the dimension is a deployment constant, e.g. 1024").
type Embedding []float32

func (e Embedding) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	return json.Marshal(e)
}

func (e *Embedding) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	return scanJSON(value, e)
}

// ValidateDimension rejects an embedding vector with the wrong dimension at
// write time (spec.md §8 boundary behavior).
func (e Embedding) ValidateDimension(expected int) error {
	if e == nil {
		return nil
	}
	if len(e) != expected {
		return fmt.Errorf("embedding has dimension %d, want %d", len(e), expected)
	}
	return nil
}

// Chunk is a retrieval unit sliced from a document's text (spec.md §3).
// (document_id, chunk_index) is unique and stable across re-indexing of the
// same bytes.
type Chunk struct {
	ID            uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid"`
	DocumentID    uuid.UUID      `json:"document_id" gorm:"type:uuid;index;not null;uniqueIndex:idx_doc_chunk_index"`
	ChunkIndex    int            `json:"chunk_index" gorm:"not null;uniqueIndex:idx_doc_chunk_index"`
	Content       string         `json:"content" gorm:"type:text;not null"`
	ChunkType     ChunkType      `json:"chunk_type" gorm:"size:32"`
	PageNumber    int            `json:"page_number"`
	SectionTitle  string         `json:"section_title"`
	ProductIDs    pq.StringArray `json:"product_ids" gorm:"type:text[]"`
	SpecNames     pq.StringArray `json:"spec_names" gorm:"type:text[]"`
	Embedding     Embedding      `json:"embedding,omitempty" gorm:"type:jsonb"`
	TokenCount    int            `json:"token_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Chunk) TableName() string { return "chunks" }
