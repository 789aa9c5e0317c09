package impl

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// modelNumberToken detects model-number-shaped tokens in free text (spec.md
// §4.10 step 1): a letter run followed by a digit run, optionally hyphenated,
// mirroring the loose shape the Model Resolver's brand patterns target
// (services/impl/resolver.go) without needing a brand-specific pattern table.
var modelNumberToken = regexp.MustCompile(`\b[A-Z]{1,6}-?[0-9]{2,6}[A-Z0-9-]*\b`)

// retrievalEngineService implements services.RetrievalService (spec.md §4.10):
// parse -> filter -> vector search -> lexical search -> RRF fuse ->
// token-budgeted context pack. Fusion is grounded directly on
// reciprocalRankFusion in other_examples' RAGbox retriever; the context-pack
// fill step generalizes the teacher's fitToTokenBudget
// (services/impl/hybrid_context.go) from priority tiers to a single
// RRF-ordered queue.
type retrievalEngineService struct {
	registry services.RegistryService
	chunks   services.ChunkStore
	embedder services.EmbedderClient
	cache    services.RetrievalCacheService

	embedderCfg config.EmbedderConfig
	cfg         config.RetrievalConfig
	brandCodes  []string
}

// NewRetrievalEngineService constructs the Retrieval Engine.
func NewRetrievalEngineService(
	registry services.RegistryService,
	chunks services.ChunkStore,
	embedder services.EmbedderClient,
	cache services.RetrievalCacheService,
	embedderCfg config.EmbedderConfig,
	cfg config.RetrievalConfig,
	brandCodes []string,
) services.RetrievalService {
	return &retrievalEngineService{
		registry:    registry,
		chunks:      chunks,
		embedder:    embedder,
		cache:       cache,
		embedderCfg: embedderCfg,
		cfg:         cfg,
		brandCodes:  brandCodes,
	}
}

func (s *retrievalEngineService) Retrieve(ctx context.Context, rawQuery string) (*models.ContextPack, error) {
	parsed := s.parse(ctx, rawQuery)
	filters := s.filter(parsed)

	cacheKey := s.cache.GenerateCacheKey(rawQuery, filters, parsed.BrandCodes)
	if cached, hit, err := s.cache.Get(ctx, cacheKey); err == nil && hit {
		return cached, nil
	}

	vectorTopK := s.cfg.VectorTopK
	if vectorTopK <= 0 {
		vectorTopK = 40
	}
	lexicalTopK := s.cfg.LexicalTopK
	if lexicalTopK <= 0 {
		lexicalTopK = 40
	}

	var vectorRanked []models.RankedChunk
	lexicalOnly := false

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors, err := s.embedder.Embed(ctx, s.embedderCfg.Model, []string{rawQuery})
	if err != nil {
		// Embedding provider unavailable: degrade to lexical-only results
		// rather than fail the whole query (spec.md §4.10 failure model).
		lexicalOnly = true
	} else if len(vectors) > 0 {
		vectorRanked, err = s.chunks.VectorSearch(ctx, vectors[0], vectorTopK, filters)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "retrieval store unavailable", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lexicalRanked, err := s.chunks.LexicalSearch(ctx, rawQuery, lexicalTopK, filters)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "retrieval store unavailable", err)
	}

	rrfK := s.cfg.RRFK
	if rrfK <= 0 {
		rrfK = 60
	}
	fused := reciprocalRankFusion(rrfK, vectorRanked, lexicalRanked)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pack, err := s.buildContextPack(ctx, parsed, filters, fused, lexicalOnly)
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, cacheKey, pack, 0)
	return pack, nil
}

// parse detects model-number tokens, brand codes, registry-synonym spec
// terms, and known certification refs, then classifies intent (spec.md
// §4.10 step 1).
func (s *retrievalEngineService) parse(ctx context.Context, rawQuery string) models.ParsedQuery {
	upper := strings.ToUpper(rawQuery)
	lower := strings.ToLower(rawQuery)

	parsed := models.ParsedQuery{
		RawQuery:     rawQuery,
		ModelNumbers: dedupStrings(modelNumberToken.FindAllString(upper, -1)),
	}

	for _, brand := range s.brandCodes {
		if strings.Contains(lower, strings.ToLower(brand)) {
			parsed.BrandCodes = append(parsed.BrandCodes, brand)
		}
	}

	parsed.SpecTerms = s.resolveSpecTerms(ctx, lower)

	for _, cert := range knownCertifications {
		if strings.Contains(upper, cert) {
			parsed.CertificationRefs = append(parsed.CertificationRefs, cert)
		}
	}

	parsed.Intent = classifyIntent(lower, len(parsed.SpecTerms) > 0)
	return parsed
}

// resolveSpecTerms expands n-gram windows of the query against the Registry's
// synonym table, the same normalize-then-resolve approach the Chunker uses
// for mentioned-spec detection (services/impl/chunker.go's
// resolveMentionedSpecs), widened to multi-word synonyms like "door count".
func (s *retrievalEngineService) resolveSpecTerms(ctx context.Context, lowerQuery string) []string {
	words := strings.Fields(lowerQuery)
	seen := make(map[string]bool)
	var found []string

	tryResolve := func(phrase string) {
		normalized := normalizeLabel(phrase)
		if normalized == "" {
			return
		}
		canonical, ok, err := s.registry.Resolve(ctx, normalized)
		if err != nil || !ok || seen[canonical] {
			return
		}
		seen[canonical] = true
		found = append(found, canonical)
	}

	for n := 3; n >= 1; n-- {
		for i := 0; i+n <= len(words); i++ {
			tryResolve(strings.Join(words[i:i+n], " "))
		}
	}
	return found
}

// classifyIntent is a rule-based classifier over keyword sets, matching the
// Document Classifier's plain keyword-scan approach (services/impl/classifier.go)
// rather than a learned model (spec.md §4.10 step 1).
func classifyIntent(lowerQuery string, hasSpecTerm bool) models.QueryIntent {
	switch {
	case containsAny(lowerQuery, "vs", "versus", "compare", "comparison", "difference between"):
		return models.IntentComparison
	case containsAny(lowerQuery, "recommend", "best for", "suitable for", "which unit", "which model", "should i use", "use case"):
		return models.IntentRecommendation
	case containsAny(lowerQuery, "comply", "compliant", "compliance", "certified", "certification", "nsf", "ul listed", "energy star"):
		return models.IntentCompliance
	case hasSpecTerm:
		return models.IntentSpecLookup
	default:
		return models.IntentGeneral
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// filter derives structured predicates from parsed entities (spec.md §4.10
// step 2): a single detected brand code narrows by brand; detected
// certifications narrow by certification. Detected model numbers do not
// narrow the filter; RetrievalFilters.ProductID is left unset.
func (s *retrievalEngineService) filter(parsed models.ParsedQuery) models.RetrievalFilters {
	var filters models.RetrievalFilters
	if len(parsed.BrandCodes) == 1 {
		filters.Brand = parsed.BrandCodes[0]
	}
	filters.Certifications = parsed.CertificationRefs
	return filters
}

// reciprocalRankFusion merges independently-ranked chunk lists into one
// ordering, grounded directly on reciprocalRankFusion in
// other_examples/37fa3790_TicoDavid-RAGbox.co__backend-internal-service-retriever.go.go:
// score(d) = sum over rankings of 1/(k+rank), 1-based rank per input list,
// descending score order with a stable tie-break on chunk id for
// deterministic output under permuted ties (spec.md §8 testable property 5).
func reciprocalRankFusion(k int, rankings ...[]models.RankedChunk) []models.FusedChunk {
	scores := make(map[uuid.UUID]float64)
	for _, ranking := range rankings {
		for _, rc := range ranking {
			scores[rc.ChunkID] += 1.0 / float64(k+rc.Rank)
		}
	}

	fused := make([]models.FusedChunk, 0, len(scores))
	for id, score := range scores {
		fused = append(fused, models.FusedChunk{ChunkID: id, RRFScore: score})
	}
	sort.Slice(fused, func(i, j int) bool {
		if fused[i].RRFScore != fused[j].RRFScore {
			return fused[i].RRFScore > fused[j].RRFScore
		}
		return fused[i].ChunkID.String() < fused[j].ChunkID.String()
	})
	return fused
}

// buildContextPack iterates the fused ranking, pulling chunk bodies and
// filling a token budget, always keeping the first chunk seen per distinct
// product even once the budget would otherwise be exhausted (spec.md §4.10
// step 6). The greedy fill-then-guarantee-coverage shape generalizes the
// teacher's fitToTokenBudget (services/impl/hybrid_context.go), collapsed
// from per-tier budgets to a single RRF-ordered queue since the spec defines
// one combined ranking, not tiers.
func (s *retrievalEngineService) buildContextPack(ctx context.Context, parsed models.ParsedQuery, filters models.RetrievalFilters, fused []models.FusedChunk, lexicalOnly bool) (*models.ContextPack, error) {
	budget := s.cfg.ContextTokenBudget
	if budget <= 0 {
		budget = 3000
	}

	ids := make([]uuid.UUID, len(fused))
	for i, f := range fused {
		ids[i] = f.ChunkID
	}

	chunkRecords, err := s.chunks.GetByIDs(ctx, ids)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "retrieval store unavailable", err)
	}
	byID := make(map[uuid.UUID]models.Chunk, len(chunkRecords))
	for _, c := range chunkRecords {
		byID[c.ID] = c
	}

	scoreByID := make(map[uuid.UUID]float64, len(fused))
	for _, f := range fused {
		scoreByID[f.ChunkID] = f.RRFScore
	}

	usedTokens := 0
	usedProductSet := make(map[uuid.UUID]bool)
	var usedProducts []uuid.UUID
	var outChunks []models.ContextChunk

	include := func(c models.Chunk) {
		productIDs := stringsToUUIDs(c.ProductIDs)
		outChunks = append(outChunks, models.ContextChunk{
			Content:     c.Content,
			SourceDocID: c.DocumentID,
			ProductIDs:  productIDs,
			PageNumber:  c.PageNumber,
			Score:       scoreByID[c.ID],
		})
		usedTokens += c.TokenCount
		for _, pid := range productIDs {
			if !usedProductSet[pid] {
				usedProductSet[pid] = true
				usedProducts = append(usedProducts, pid)
			}
		}
	}

	for _, f := range fused {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, ok := byID[f.ChunkID]
		if !ok {
			continue
		}
		if usedTokens+c.TokenCount > budget {
			continue
		}
		include(c)
	}

	// Guarantee at least one chunk per distinct product referenced, even if
	// its best chunk didn't fit the budget (spec.md §4.10 step 6).
	for _, f := range fused {
		c, ok := byID[f.ChunkID]
		if !ok {
			continue
		}
		covered := true
		for _, pid := range stringsToUUIDs(c.ProductIDs) {
			if !usedProductSet[pid] {
				covered = false
				break
			}
		}
		if covered {
			continue
		}
		include(c)
	}

	return &models.ContextPack{
		Intent:       parsed.Intent,
		Filters:      filters,
		Chunks:       outChunks,
		UsedProducts: usedProducts,
		LexicalOnly:  lexicalOnly,
	}, nil
}

func stringsToUUIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		id, err := uuid.Parse(s)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
