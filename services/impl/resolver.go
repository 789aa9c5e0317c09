package impl

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// modelPatternLoader is the read-only-at-steady-state Model Pattern table
// accessor; Resolve loads the active patterns on every call (once per
// document), not once per job.
type modelPatternLoader interface {
	ListActivePatterns(ctx context.Context, brandHint string) ([]models.ModelPattern, error)
}

// modelResolverService implements services.ResolverService (spec.md §4.3).
type modelResolverService struct {
	patterns modelPatternLoader
}

// NewResolverService constructs the Model Resolver.
func NewResolverService(patterns modelPatternLoader) services.ResolverService {
	return &modelResolverService{patterns: patterns}
}

func (s *modelResolverService) Resolve(ctx context.Context, text, brandHint string) ([]models.ModelCandidate, []models.ProcessingLogEntry, error) {
	patterns, err := s.patterns.ListActivePatterns(ctx, brandHint)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load model patterns: %w", err)
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Priority > patterns[j].Priority
	})

	var candidates []models.ModelCandidate
	var log []models.ProcessingLogEntry
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern.PatternRegex)
		if err != nil {
			log = append(log, models.ProcessingLogEntry{
				Stage:   "model_resolver",
				Status:  "warning",
				Message: fmt.Sprintf("invalid pattern for brand %s: %v", pattern.Brand, err),
			})
			continue
		}

		matches := re.FindAllStringSubmatch(text, -1)
		for _, m := range matches {
			modelNumber := m[0]
			if len(m) > 1 && m[1] != "" {
				modelNumber = m[1]
			}
			// The first match per distinct model_number wins; subsequent
			// patterns do not overwrite (spec.md §4.3).
			if seen[modelNumber] {
				continue
			}
			seen[modelNumber] = true

			decoded := decodeFields(m, pattern.FieldMap, pattern.ValueMap)
			candidates = append(candidates, models.ModelCandidate{
				ModelNumber:    modelNumber,
				Family:         pattern.Family,
				ProductLine:    pattern.ProductLine,
				ControllerTier: pattern.ControllerTier,
				DecodedFields:  decoded,
			})
		}
	}

	return candidates, log, nil
}

// decodeFields applies field_map and value_map to regex capture groups
// (spec.md §4.3).
func decodeFields(groups []string, fieldMap models.FieldMap, valueMap models.ValueMap) map[string]string {
	decoded := make(map[string]string)
	for groupIdx, canonicalName := range fieldMap {
		idx := parseGroupIndex(groupIdx)
		if idx <= 0 || idx >= len(groups) {
			continue
		}
		raw := groups[idx]
		if mapped, ok := valueMap[fmt.Sprintf("%s:%s", groupIdx, raw)]; ok {
			decoded[canonicalName] = mapped
		} else {
			decoded[canonicalName] = raw
		}
	}
	return decoded
}

func parseGroupIndex(s string) int {
	var idx int
	_, err := fmt.Sscanf(s, "%d", &idx)
	if err != nil {
		return -1
	}
	return idx
}

// warnFamilyConflict implements the §4.3 edge policy: a decoded family
// conflict is logged, not rejected.
func warnFamilyConflict(decodedFamily, registryFamily string) models.ProcessingLogEntry {
	return models.ProcessingLogEntry{
		Stage:   "model_resolver",
		Status:  "warning",
		Message: fmt.Sprintf("decoded family %q conflicts with registry family scope %q", decodedFamily, registryFamily),
	}
}
