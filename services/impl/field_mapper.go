package impl

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// fieldMapperService implements services.FieldMapperService (spec.md §4.4).
type fieldMapperService struct {
	registry services.RegistryService
}

// NewFieldMapperService constructs the Field Mapper.
func NewFieldMapperService(registry services.RegistryService) services.FieldMapperService {
	return &fieldMapperService{registry: registry}
}

func (s *fieldMapperService) Map(ctx context.Context, fields []services.LabelValue) ([]services.MappedField, []services.LabelValue, error) {
	var mapped []services.MappedField
	var unknown []services.LabelValue

	for _, f := range fields {
		normalized := normalizeLabel(f.Label)
		canonical, found, err := s.registry.Resolve(ctx, normalized)
		if err != nil {
			return nil, nil, err
		}
		if found {
			mapped = append(mapped, services.MappedField{
				CanonicalName: canonical,
				RawValue:      f.RawValue,
				Context:       f.Context,
			})
			continue
		}

		// Unknown label: register via auto-discovery (spec.md §4.4).
		inferredType := inferDataType(f.RawValue)
		canonical, err = s.registry.RegisterAuto(ctx, f.Label, inferredType)
		if err != nil {
			return nil, nil, err
		}
		mapped = append(mapped, services.MappedField{
			CanonicalName: canonical,
			RawValue:      f.RawValue,
			Context:       f.Context,
		})
		unknown = append(unknown, f)
	}

	return mapped, unknown, nil
}

var punctuationPattern = regexp.MustCompile(`[^\w\s]`)

// normalizeLabel is case-insensitive, whitespace-normalized, punctuation-
// stripped (spec.md §4.4).
func normalizeLabel(label string) string {
	lower := strings.ToLower(label)
	stripped := punctuationPattern.ReplaceAllString(lower, "")
	fields := strings.Fields(stripped)
	return strings.Join(fields, " ")
}

var booleanValues = map[string]bool{
	"yes": true, "no": true, "true": true, "false": true,
}

// inferDataType infers a data type from value shape: decimal -> numeric;
// Yes/No/True/False -> boolean; comma list -> list; else text (spec.md §4.4).
func inferDataType(rawValue string) models.SpecDataType {
	trimmed := strings.TrimSpace(rawValue)
	lower := strings.ToLower(trimmed)
	if booleanValues[lower] {
		return models.SpecDataTypeBoolean
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return models.SpecDataTypeNumeric
	}
	if strings.Contains(trimmed, ",") {
		return models.SpecDataTypeList
	}
	return models.SpecDataTypeText
}
