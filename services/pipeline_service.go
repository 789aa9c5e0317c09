package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
)

// ExtractedPage is one page of extracted text.
type ExtractedPage struct {
	PageNo int    `json:"page_no"`
	Text   string `json:"text"`
}

// ExtractionResult is the Text Extractor's output (spec.md §4.1).
type ExtractionResult struct {
	PlainText string
	Pages     []ExtractedPage
	Metadata  map[string]string
}

// ExtractorService turns file bytes into plain text plus per-page segments
// (spec.md §4.1).
type ExtractorService interface {
	Extract(ctx context.Context, fileBytes []byte, mimeType string) (*ExtractionResult, error)
}

// ClassificationResult is the Document Classifier's output (spec.md §4.2).
type ClassificationResult struct {
	DocType    models.DocType
	BrandCode  string
	Revision   string
}

// ClassifierService classifies extracted text into a doc_type, detected brand,
// and parsed revision (spec.md §4.2).
type ClassifierService interface {
	Classify(ctx context.Context, text, filename string) (*ClassificationResult, error)
}

// ResolverService decodes brand-model candidates from text via the Model
// Pattern table (spec.md §4.3).
type ResolverService interface {
	Resolve(ctx context.Context, text, brandHint string) ([]models.ModelCandidate, []models.ProcessingLogEntry, error)
}

// LabelValue is one (label, raw_value, context) triple harvested from a
// document's tables/key-value lines/section headers (spec.md §4.4).
type LabelValue struct {
	Label    string
	RawValue string
	Context  string
}

// MappedField is a (canonical_name, raw_value, context) triple produced by the
// Field Mapper (spec.md §4.4).
type MappedField struct {
	CanonicalName string
	RawValue      string
	Context       string
}

// FieldMapperService maps raw labelled fields to canonical spec names via the
// Registry's synonym table, registering unknown labels as auto_discovered
// (spec.md §4.4).
type FieldMapperService interface {
	Map(ctx context.Context, fields []LabelValue) (mapped []MappedField, unknown []LabelValue, err error)
}

// CompoundParserService parses free-text spec values into structured values
// (spec.md §4.5): door config, shelf config, temperature range, electrical,
// refrigerant, certifications, fractional dimensions.
type CompoundParserService interface {
	ParseDoorConfig(raw string) (models.SpecValue, bool)
	ParseShelfConfig(raw string) (models.SpecValue, bool)
	ParseTemperatureRange(raw string) (models.SpecValue, bool)
	ParseElectrical(raw string) (models.SpecValue, bool)
	ParseRefrigerant(raw string) (models.SpecValue, bool)
	ParseCertifications(raw string) (models.SpecValue, bool)
	ParseFractionalDimension(raw string) (models.SpecValue, bool)
}

// ConflictDecision is the Conflict Engine's per-spec decision (spec.md §4.7).
type ConflictDecision struct {
	Action        string // "write", "noop", "overwrite", "conflict"
	ConflictID    uuid.UUID
	Severity      models.ConflictSeverity
}

// ConflictEngineService compares an incoming spec value to the stored value
// and decides update vs. flag-for-review (spec.md §4.7).
type ConflictEngineService interface {
	Evaluate(ctx context.Context, product *models.Product, canonicalName string, newValue models.SpecValue, newDocID, existingDocID uuid.UUID, newRevision, existingRevision string) (*ConflictDecision, error)
}

// ChunkerService splits extracted text into structure-aware retrieval chunks
// (spec.md §4.9).
type ChunkerService interface {
	Chunk(ctx context.Context, doc *models.Document, extraction *ExtractionResult, productIDs []uuid.UUID, specNames []string) ([]models.Chunk, error)
}
