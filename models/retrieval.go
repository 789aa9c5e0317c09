package models

import "github.com/google/uuid"

// QueryIntent classifies a parsed query (spec.md §4.10 step 1).
type QueryIntent string

const (
	IntentSpecLookup     QueryIntent = "spec_lookup"
	IntentComparison     QueryIntent = "comparison"
	IntentRecommendation QueryIntent = "recommendation"
	IntentCompliance     QueryIntent = "compliance"
	IntentGeneral        QueryIntent = "general"
)

// ParsedQuery is the output of the Retrieval Engine's parse step: detected
// entities plus classified intent (spec.md §4.10 step 1).
type ParsedQuery struct {
	RawQuery          string      `json:"raw_query"`
	Intent            QueryIntent `json:"intent"`
	ModelNumbers      []string    `json:"model_numbers,omitempty"`
	BrandCodes        []string    `json:"brand_codes,omitempty"`
	SpecTerms         []string    `json:"spec_terms,omitempty"`
	CertificationRefs []string    `json:"certification_refs,omitempty"`
}

// RetrievalFilters are the structured predicates derived from a ParsedQuery
// (spec.md §4.10 step 2).
type RetrievalFilters struct {
	ProductID      *uuid.UUID `json:"product_id,omitempty"`
	Brand          string     `json:"brand,omitempty"`
	Certifications []string   `json:"certifications,omitempty"`
}

// RankedChunk is one candidate in a single-modality ranking (vector or lexical)
// before fusion (spec.md §4.10 steps 3-4).
type RankedChunk struct {
	ChunkID    uuid.UUID
	Rank       int // 1-based rank within this ranking
	RawScore   float64
}

// FusedChunk is a chunk after Reciprocal Rank Fusion (spec.md §4.10 step 5,
// §8 testable property 5: stable fused ranks under tied-input permutation).
type FusedChunk struct {
	ChunkID  uuid.UUID
	RRFScore float64
}

// ContextChunk is one chunk included in the final context pack (spec.md §4.10
// step 6).
type ContextChunk struct {
	Content      string      `json:"content"`
	SourceDocID  uuid.UUID   `json:"source_doc_id"`
	ProductIDs   []uuid.UUID `json:"product_ids"`
	PageNumber   int         `json:"page_number"`
	Score        float64     `json:"score"`
}

// ContextPack is the Retrieval Engine's final output (spec.md §4.10 step 6).
type ContextPack struct {
	Intent       QueryIntent       `json:"intent"`
	Filters      RetrievalFilters  `json:"filters"`
	Chunks       []ContextChunk    `json:"chunks"`
	UsedProducts []uuid.UUID       `json:"used_products"`
	LexicalOnly  bool              `json:"lexical_only"`
}

// AskRequest is the ask endpoint's request shape (spec.md §6).
type AskRequest struct {
	Question string `json:"question" validate:"required"`
}

// AskResponse is the ask endpoint's response shape (spec.md §6): the answer is
// produced by the external generator on the retrieval context; the retrieval
// engine itself never calls the generator.
type AskResponse struct {
	Answer  string        `json:"answer"`
	Sources []ContextChunk `json:"sources"`
}
