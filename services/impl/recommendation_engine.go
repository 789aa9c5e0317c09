package impl

import (
	"context"
	"sort"
	"strings"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// scoredCandidate is one candidate product with its computed soft score and
// per-spec breakdown, before the top-N cut and tie-break.
type scoredCandidate struct {
	product   models.Product
	score     float64
	breakdown []models.ScoreBreakdown
}

// recommendationEngineService implements services.RecommendationService
// (spec.md §4.11): hard-constraint filter against the Catalog Store, then
// weighted soft scoring against a named (or keyword-matched) use-case
// profile, tie-broken by the matching family's Equivalence Rule priority
// specs. Scoring mirrors the teacher's weighted-feature scoring shape in
// services/impl/agent_service_impl.go's ranking helpers, generalized from
// agent capability match to spec target-band match.
type recommendationEngineService struct {
	products services.ProductStore
	profiles services.RecommendationStore
	registry services.RegistryStore
}

// NewRecommendationEngineService constructs the Recommendation Engine.
func NewRecommendationEngineService(products services.ProductStore, profiles services.RecommendationStore, registry services.RegistryStore) services.RecommendationService {
	return &recommendationEngineService{products: products, profiles: profiles, registry: registry}
}

func (s *recommendationEngineService) Recommend(ctx context.Context, req models.RecommendRequest) (*models.RecommendResponse, error) {
	profile, err := s.resolveProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return &models.RecommendResponse{Diagnostic: "no matching use case profile found"}, nil
	}

	filter := constraintsToFilter(req.Constraints)
	filter.Status = string(models.ProductStatusActive)
	filter.PageSize = 500

	listResp, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to list candidates", err)
	}
	if len(listResp.Products) == 0 {
		return &models.RecommendResponse{Diagnostic: "no products satisfy the given constraints"}, nil
	}

	var results []scoredCandidate
	for _, p := range listResp.Products {
		score, breakdown, disqualified := scoreProduct(p, profile.Weights)
		if disqualified {
			continue
		}
		results = append(results, scoredCandidate{product: p, score: score, breakdown: breakdown})
	}
	if len(results) == 0 {
		return &models.RecommendResponse{Diagnostic: "no products satisfy every required spec of the use case profile"}, nil
	}

	prioritySpecs := s.prioritySpecsFor(ctx, results)

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return tieBreakLess(results[i].product, results[j].product, prioritySpecs)
	})

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	if maxResults > len(results) {
		maxResults = len(results)
	}

	out := make([]models.RecommendedProduct, 0, maxResults)
	for _, r := range results[:maxResults] {
		out = append(out, models.RecommendedProduct{Product: r.product, Score: r.score, Breakdown: r.breakdown})
	}
	return &models.RecommendResponse{Results: out}, nil
}

// resolveProfile picks the profile by exact name, or by keyword matching the
// free-text use-case description against each profile's synonyms (spec.md
// §4.11: "resolved to a profile by keyword matching over profile synonyms").
func (s *recommendationEngineService) resolveProfile(ctx context.Context, req models.RecommendRequest) (*models.UseCaseProfile, error) {
	if req.UseCase != "" {
		profile, err := s.profiles.GetProfile(ctx, req.UseCase)
		if err != nil {
			return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to load use case profile", err)
		}
		return profile, nil
	}
	if req.UseCaseText == "" {
		return nil, catalogerr.New(catalogerr.KindValidation, "use_case or use_case_text is required")
	}

	profiles, err := s.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "failed to list use case profiles", err)
	}
	lower := strings.ToLower(req.UseCaseText)
	var best *models.UseCaseProfile
	bestMatches := 0
	for i := range profiles {
		matches := 0
		for _, syn := range profiles[i].Synonyms {
			if syn != "" && strings.Contains(lower, strings.ToLower(syn)) {
				matches++
			}
		}
		if strings.Contains(lower, strings.ToLower(profiles[i].Name)) {
			matches++
		}
		if matches > bestMatches {
			bestMatches = matches
			best = &profiles[i]
		}
	}
	return best, nil
}

func constraintsToFilter(c models.RecommendConstraints) models.ProductListFilter {
	return models.ProductListFilter{
		Brand:          c.Brand,
		Family:         c.Family,
		CapacityMin:    c.CapacityMin,
		CapacityMax:    c.CapacityMax,
		Certifications: c.CertificationsRequired,
	}
}

// scoreProduct implements spec.md §4.11 step 2: score = sum(w_i * feature_i),
// feature_i = 1.0 inside the target band, decaying linearly to 0.0 at twice
// the band width, 0.0 (and a hard disqualification if the spec is required)
// when the value is missing.
func scoreProduct(p models.Product, weights models.SpecWeights) (float64, []models.ScoreBreakdown, bool) {
	var total float64
	breakdown := make([]models.ScoreBreakdown, 0, len(weights))

	for _, w := range weights {
		value, ok := specFeatureValue(p, w.SpecName)
		if !ok {
			if w.Required {
				return 0, nil, true
			}
			breakdown = append(breakdown, models.ScoreBreakdown{SpecName: w.SpecName, Weight: w.Weight, FeatureScore: 0, Contribution: 0})
			continue
		}

		feature := bandDecay(value, w.TargetBand)
		contribution := w.Weight * feature
		total += contribution
		breakdown = append(breakdown, models.ScoreBreakdown{
			SpecName:     w.SpecName,
			Weight:       w.Weight,
			FeatureScore: feature,
			Contribution: contribution,
		})
	}
	return total, breakdown, false
}

// bandDecay is 1.0 inside [min,max], decaying linearly to 0.0 at a distance
// of twice the band width outside either edge, and 0.0 beyond that (spec.md §4.11
// step 2: "decays linearly to 0.0 at twice the band width"). A zero-width
// band is treated as a point target with distance-based decay over the same
// rule, scaled by 1 unit, since "twice the width" of a zero-width band would
// never decay.
func bandDecay(value float64, band models.TargetBand) float64 {
	if value >= band.Min && value <= band.Max {
		return 1.0
	}

	width := band.Width()
	if width <= 0 {
		width = 1.0
	}

	var distance float64
	if value < band.Min {
		distance = band.Min - value
	} else {
		distance = value - band.Max
	}

	decayDistance := 2 * width
	if distance >= decayDistance {
		return 0.0
	}
	return 1.0 - (distance / decayDistance)
}

// specFeatureValue reads a numeric feature value for a spec name, preferring
// the fixed denormalized columns the Catalog Store projects (spec.md §3) and
// falling back to the jsonb Specs map for anything else.
func specFeatureValue(p models.Product, specName string) (float64, bool) {
	switch specName {
	case "storage_capacity_cuft":
		return derefFloat(p.StorageCapacityCuFt)
	case "temp_range_min_c":
		return derefFloat(p.TempRangeMinC)
	case "temp_range_max_c":
		return derefFloat(p.TempRangeMaxC)
	case "voltage_v":
		return derefFloat(p.VoltageV)
	case "amperage":
		return derefFloat(p.Amperage)
	case "weight_lbs":
		return derefFloat(p.WeightLbs)
	case "width_in":
		return derefFloat(p.WidthIn)
	case "height_in":
		return derefFloat(p.HeightIn)
	case "depth_in":
		return derefFloat(p.DepthIn)
	}

	sv, ok := p.Specs[specName]
	if !ok || sv.ParseFailed {
		return 0, false
	}
	switch sv.Kind {
	case models.SpecValueNumeric:
		return sv.NumericVal, true
	case models.SpecValueRange:
		return (sv.RangeMin + sv.RangeMax) / 2, true
	default:
		return 0, false
	}
}

func derefFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// prioritySpecsFor loads the priority_specs tie-break order from the
// Equivalence Rule of the most common family among candidates (spec.md
// §4.11 step 3); ties across multiple families fall back to score-only order.
func (s *recommendationEngineService) prioritySpecsFor(ctx context.Context, results []scoredCandidate) []string {
	if len(results) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, r := range results {
		counts[r.product.Family]++
	}
	family, best, tied := "", 0, false
	for f, n := range counts {
		switch {
		case n > best:
			family, best, tied = f, n, false
		case n == best:
			tied = true
		}
	}
	if tied {
		return nil
	}
	rule, err := s.registry.GetEquivalenceRule(ctx, family)
	if err != nil || rule == nil {
		return nil
	}
	return rule.PrioritySpecs
}

func tieBreakLess(a, b models.Product, prioritySpecs []string) bool {
	for _, spec := range prioritySpecs {
		av, aok := specFeatureValue(a, spec)
		bv, bok := specFeatureValue(b, spec)
		if !aok || !bok || av == bv {
			continue
		}
		return av > bv
	}
	return a.ModelNumber < b.ModelNumber
}
