package impl

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// chunkSoftTargetTokens and chunkHardCapTokens bound structure-aware chunking
// (spec.md §4.9).
const (
	chunkSoftTargetTokens = 500
	chunkHardCapTokens    = 900
)

// chunkerService implements services.ChunkerService (spec.md §4.9), grounded
// on the teacher's segmentDocuments greedy token-budget accumulation
// (services/impl/multipass_service_impl.go) generalized from "fill a context
// window" to "fill a chunk".
type chunkerService struct {
	registry services.RegistryService
}

// NewChunkerService constructs the Chunker.
func NewChunkerService(registry services.RegistryService) services.ChunkerService {
	return &chunkerService{registry: registry}
}

// estimateTokenCount mirrors the teacher's chars/4 heuristic
// (services/impl/document_context_impl.go's EstimateTokenCount).
func estimateTokenCount(text string) int {
	if text == "" {
		return 0
	}
	return len(text) / 4
}

var (
	headingLine  = regexp.MustCompile(`(?m)^\s*#{1,6}\s+.+$`)
	tableLine    = regexp.MustCompile(`(?m)^\s*\|.+\|\s*$`)
	specBlockKey = regexp.MustCompile(`(?m)^\s*[\w ]+:\s*\S+`)
)

func (c *chunkerService) Chunk(ctx context.Context, doc *models.Document, extraction *services.ExtractionResult, productIDs []uuid.UUID, specNames []string) ([]models.Chunk, error) {
	var chunks []models.Chunk
	index := 0

	for _, page := range extraction.Pages {
		blocks := splitIntoBlocks(page.Text)
		var buffer strings.Builder
		bufferTokens := 0
		sectionTitle := ""

		flush := func() {
			content := strings.TrimSpace(buffer.String())
			if content == "" {
				return
			}
			specs, err := c.resolveMentionedSpecs(ctx, content)
			if err != nil {
				specs = nil
			}
			chunks = append(chunks, models.Chunk{
				ID:           uuid.New(),
				DocumentID:   doc.ID,
				ChunkIndex:   index,
				Content:      content,
				ChunkType:    models.ChunkTypeText,
				PageNumber:   page.PageNo,
				SectionTitle: sectionTitle,
				ProductIDs:   uuidsToStrings(productIDs),
				SpecNames:    specs,
				TokenCount:   estimateTokenCount(content),
			})
			index++
			buffer.Reset()
			bufferTokens = 0
		}

		for _, block := range blocks {
			trimmed := strings.TrimSpace(block)
			if trimmed == "" {
				continue
			}

			chunkType := classifyBlock(trimmed)
			if chunkType == models.ChunkTypeHeader {
				sectionTitle = trimmed
			}

			// Headers and spec tables are each their own chunk (spec.md §4.9).
			if chunkType == models.ChunkTypeHeader || chunkType == models.ChunkTypeSpecBlock || chunkType == models.ChunkTypeTable {
				flush()
				specs, err := c.resolveMentionedSpecs(ctx, trimmed)
				if err != nil {
					specs = nil
				}
				chunks = append(chunks, models.Chunk{
					ID:           uuid.New(),
					DocumentID:   doc.ID,
					ChunkIndex:   index,
					Content:      trimmed,
					ChunkType:    chunkType,
					PageNumber:   page.PageNo,
					SectionTitle: sectionTitle,
					ProductIDs:   uuidsToStrings(productIDs),
					SpecNames:    specs,
					TokenCount:   estimateTokenCount(trimmed),
				})
				index++
				continue
			}

			blockTokens := estimateTokenCount(trimmed)
			if bufferTokens+blockTokens > chunkSoftTargetTokens && bufferTokens > 0 {
				flush()
			}
			if buffer.Len() > 0 {
				buffer.WriteString("\n\n")
			}
			buffer.WriteString(trimmed)
			bufferTokens += blockTokens

			if bufferTokens >= chunkHardCapTokens {
				flush()
			}
		}
		flush()
	}

	return chunks, nil
}

// splitIntoBlocks splits page text on blank lines (paragraph boundaries).
func splitIntoBlocks(text string) []string {
	return regexp.MustCompile(`\n\s*\n`).Split(text, -1)
}

func classifyBlock(block string) models.ChunkType {
	switch {
	case headingLine.MatchString(block) && len(block) < 120:
		return models.ChunkTypeHeader
	case tableLine.MatchString(block):
		return models.ChunkTypeTable
	case isSpecBlock(block):
		return models.ChunkTypeSpecBlock
	default:
		return models.ChunkTypeText
	}
}

// isSpecBlock treats a block as a spec table when most of its lines are
// "label: value" pairs.
func isSpecBlock(block string) bool {
	lines := strings.Split(block, "\n")
	if len(lines) < 2 {
		return false
	}
	matches := 0
	for _, l := range lines {
		if specBlockKey.MatchString(l) {
			matches++
		}
	}
	return float64(matches)/float64(len(lines)) >= 0.6
}

func (c *chunkerService) resolveMentionedSpecs(ctx context.Context, content string) ([]string, error) {
	lower := strings.ToLower(content)
	var found []string
	seen := make(map[string]bool)
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ':' || r == ',' || r == '\n' || r == '\t'
	}) {
		label := strings.TrimSpace(token)
		if label == "" {
			continue
		}
		canonical, ok, err := c.registry.Resolve(ctx, normalizeLabel(label))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve spec mention: %w", err)
		}
		if ok && !seen[canonical] {
			found = append(found, canonical)
			seen[canonical] = true
		}
	}
	return found, nil
}

func uuidsToStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
