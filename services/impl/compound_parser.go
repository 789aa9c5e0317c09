package impl

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// compoundParserService implements services.CompoundParserService (spec.md §4.5).
// Multi-field compounds (door, shelf, electrical) encode their sub-fields as
// "name=value" entries in a Kind=List SpecValue; the ingestion orchestrator
// expands these into separate canonical_name entries before the product
// upsert. The other compounds return their natural Kind directly: temperature
// range as Kind=Range, refrigerant as text, certifications as a list and
// fractional dimension as numeric.
type compoundParserService struct{}

// NewCompoundParserService constructs the Compound Parser.
func NewCompoundParserService() services.CompoundParserService {
	return &compoundParserService{}
}

func failed(raw string) models.SpecValue {
	return models.SpecValue{Kind: models.SpecValueText, ParseFailed: true, RawText: raw}
}

func listOf(pairs map[string]string, raw string) models.SpecValue {
	vals := make([]string, 0, len(pairs))
	for k, v := range pairs {
		vals = append(vals, fmt.Sprintf("%s=%s", k, v))
	}
	return models.SpecValue{Kind: models.SpecValueList, ListVal: vals, RawText: raw}
}

var (
	integerWords = map[string]int{
		"one": 1, "two": 2, "three": 3, "four": 4,
	}
	doorCountPattern = regexp.MustCompile(`(?i)\b(one|two|three|four|\d+)\b`)
	doorTypePattern  = regexp.MustCompile(`(?i)glass[\s-]?sliding|glass|solid`)
	hingePattern     = regexp.MustCompile(`(?i)\b(left|right)\b`)
)

// ParseDoorConfig implements the door-config grammar of spec.md §4.5.
func (p *compoundParserService) ParseDoorConfig(raw string) (models.SpecValue, bool) {
	lower := strings.ToLower(raw)

	countMatch := doorCountPattern.FindString(lower)
	if countMatch == "" {
		return failed(raw), false
	}
	count, ok := integerWords[countMatch]
	if !ok {
		n, err := strconv.Atoi(countMatch)
		if err != nil {
			return failed(raw), false
		}
		count = n
	}

	doorType := "solid"
	switch {
	case strings.Contains(lower, "glass sliding") || strings.Contains(lower, "glass-sliding"):
		doorType = "glass_sliding"
	case strings.Contains(lower, "glass"):
		doorType = "glass"
	}

	hinges := hingePattern.FindAllString(lower, -1)
	hinge := ""
	switch {
	case len(hinges) >= 2:
		hinge = "both"
	case len(hinges) == 1:
		hinge = strings.ToLower(hinges[0])
	}

	var features []string
	if strings.Contains(lower, "self-closing") || strings.Contains(lower, "self closing") {
		features = append(features, "self_closing")
	}
	if strings.Contains(lower, "locking") {
		features = append(features, "locking")
	}

	pairs := map[string]string{
		"door_count": strconv.Itoa(count),
		"door_type":  doorType,
	}
	if hinge != "" {
		pairs["door_hinge"] = hinge
	}
	if len(features) > 0 {
		pairs["door_features"] = strings.Join(features, ",")
	}
	return listOf(pairs, raw), true
}

var (
	shelfCountPattern = regexp.MustCompile(`(?i)\b(one|two|three|four|\d+)\b`)
	fractionRunes     = map[rune]float64{
		'¼': 0.25, '½': 0.5, '¾': 0.75, '⅛': 0.125, '⅝': 0.625,
	}
	incrementPattern = regexp.MustCompile(`(\d+(\.\d+)?|[¼½¾⅛⅝])["”]?\s*increment`)
)

// ParseShelfConfig implements the shelf-config grammar of spec.md §4.5.
func (p *compoundParserService) ParseShelfConfig(raw string) (models.SpecValue, bool) {
	lower := strings.ToLower(raw)

	countMatch := shelfCountPattern.FindString(lower)
	if countMatch == "" {
		return failed(raw), false
	}
	count, ok := integerWords[countMatch]
	if !ok {
		n, err := strconv.Atoi(countMatch)
		if err != nil {
			return failed(raw), false
		}
		count = n
	}

	shelfType := "fixed"
	hasAdjustable := strings.Contains(lower, "adjustable")
	hasFixed := strings.Contains(lower, "fixed")
	switch {
	case hasAdjustable && hasFixed:
		shelfType = "mixed"
	case hasAdjustable:
		shelfType = "adjustable"
	}

	pairs := map[string]string{
		"shelf_count": strconv.Itoa(count),
		"shelf_type":  shelfType,
	}

	if m := incrementPattern.FindStringSubmatch(raw); m != nil {
		token := m[1]
		var inc float64
		if r := []rune(token); len(r) == 1 {
			if v, ok := fractionRunes[r[0]]; ok {
				inc = v
			}
		} else if v, err := strconv.ParseFloat(token, 64); err == nil {
			inc = v
		}
		if inc > 0 {
			pairs["shelf_adjustment_increment"] = strconv.FormatFloat(inc, 'f', -1, 64)
		}
	}

	return listOf(pairs, raw), true
}

var (
	tempRangePattern  = regexp.MustCompile(`(-?\d+(\.\d+)?)\s*°?\s*([CF])\s*(?:to|-|–|~)\s*(-?\d+(\.\d+)?)\s*°?\s*([CF])`)
	tempSingleCPattern = regexp.MustCompile(`(-?\d+(\.\d+)?)\s*°?\s*C`)
	tempSingleFPattern = regexp.MustCompile(`(-?\d+(\.\d+)?)\s*°?\s*F`)
)

func fahrenheitToCelsius(f float64) float64 {
	c := (f - 32) * 5 / 9
	return math.Round(c*10) / 10
}

// ParseTemperatureRange implements the temperature-range grammar of
// spec.md §4.5; Fahrenheit inputs convert to Celsius rounded to one decimal.
func (p *compoundParserService) ParseTemperatureRange(raw string) (models.SpecValue, bool) {
	if m := tempRangePattern.FindStringSubmatch(raw); m != nil {
		min, _ := strconv.ParseFloat(m[1], 64)
		max, _ := strconv.ParseFloat(m[4], 64)
		if strings.EqualFold(m[3], "F") {
			min = fahrenheitToCelsius(min)
		}
		if strings.EqualFold(m[6], "F") {
			max = fahrenheitToCelsius(max)
		}
		return models.SpecValue{Kind: models.SpecValueRange, RangeMin: min, RangeMax: max, Unit: "c", RawText: raw}, true
	}

	if m := tempSingleCPattern.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		return models.SpecValue{Kind: models.SpecValueRange, RangeMin: v, RangeMax: v, Unit: "c", RawText: raw}, true
	}
	if m := tempSingleFPattern.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		v = fahrenheitToCelsius(v)
		return models.SpecValue{Kind: models.SpecValueRange, RangeMin: v, RangeMax: v, Unit: "c", RawText: raw}, true
	}

	return failed(raw), false
}

var (
	voltageRangePattern = regexp.MustCompile(`(\d+(\.\d+)?)\s*[-–]\s*(\d+(\.\d+)?)\s*V`)
	voltagePattern      = regexp.MustCompile(`(\d+(\.\d+)?)\s*V`)
	frequencyPattern    = regexp.MustCompile(`(\d+(\.\d+)?)\s*Hz`)
	amperagePattern     = regexp.MustCompile(`(\d+(\.\d+)?)\s*Amp`)
	horsepowerFrac      = regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s*HP`)
	horsepowerDec       = regexp.MustCompile(`(\d+(\.\d+)?)\s*HP`)
)

// ParseElectrical implements the electrical grammar of spec.md §4.5.
func (p *compoundParserService) ParseElectrical(raw string) (models.SpecValue, bool) {
	pairs := map[string]string{}
	matched := false

	if m := voltageRangePattern.FindStringSubmatch(raw); m != nil {
		min, _ := strconv.ParseFloat(m[1], 64)
		max, _ := strconv.ParseFloat(m[3], 64)
		pairs["voltage_min"] = strconv.FormatFloat(min, 'f', -1, 64)
		pairs["voltage_max"] = strconv.FormatFloat(max, 'f', -1, 64)
		pairs["voltage_v"] = strconv.FormatFloat((min+max)/2, 'f', -1, 64)
		matched = true
	} else if m := voltagePattern.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		pairs["voltage_v"] = strconv.FormatFloat(v, 'f', -1, 64)
		matched = true
	}

	if m := frequencyPattern.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		pairs["frequency_hz"] = strconv.FormatFloat(v, 'f', -1, 64)
		matched = true
	}

	if m := amperagePattern.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		pairs["amperage"] = strconv.FormatFloat(v, 'f', -1, 64)
		matched = true
	}

	if m := horsepowerFrac.FindStringSubmatch(raw); m != nil {
		num, _ := strconv.ParseFloat(m[1], 64)
		den, _ := strconv.ParseFloat(m[2], 64)
		if den != 0 {
			pairs["horsepower"] = strconv.FormatFloat(num/den, 'f', -1, 64)
			matched = true
		}
	} else if m := horsepowerDec.FindStringSubmatch(raw); m != nil {
		v, _ := strconv.ParseFloat(m[1], 64)
		pairs["horsepower"] = strconv.FormatFloat(v, 'f', -1, 64)
		matched = true
	}

	if !matched {
		return failed(raw), false
	}
	return listOf(pairs, raw), true
}

var refrigerantPattern = regexp.MustCompile(`\bR\d{3}[a-zA-Z]?\b`)

// ParseRefrigerant extracts the first R### token (spec.md §4.5).
func (p *compoundParserService) ParseRefrigerant(raw string) (models.SpecValue, bool) {
	m := refrigerantPattern.FindString(raw)
	if m == "" {
		return failed(raw), false
	}
	return models.SpecValue{Kind: models.SpecValueText, TextVal: m, RawText: raw}, true
}

var knownCertifications = []string{
	"ETL", "C-ETL", "UL471", "ENERGY STAR", "NSF/ANSI 456", "EPA SNAP",
	"UL 60335-1", "CSA C22.2 NO120", "NSF", "UL",
}

// ParseCertifications recognizes known certification tokens by substring
// match, de-duplicated and listed in knownCertifications order rather than
// input order; only when no known token is present does it split on "," and
// "/" and keep the parts in input order (spec.md §4.5).
func (p *compoundParserService) ParseCertifications(raw string) (models.SpecValue, bool) {
	normalized := strings.ToUpper(raw)
	normalized = strings.ReplaceAll(normalized, "_", " ")

	var found []string
	seen := make(map[string]bool)
	for _, cert := range knownCertifications {
		if strings.Contains(normalized, cert) && !seen[cert] {
			found = append(found, cert)
			seen[cert] = true
		}
	}

	if len(found) == 0 {
		parts := regexp.MustCompile(`[,/]`).Split(raw, -1)
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" && !seen[trimmed] {
				found = append(found, trimmed)
				seen[trimmed] = true
			}
		}
	}

	if len(found) == 0 {
		return failed(raw), false
	}
	return models.SpecValue{Kind: models.SpecValueList, ListVal: found, RawText: raw}, true
}

var (
	fractionalSlashPattern = regexp.MustCompile(`(\d+)\s+(\d+)\s*[/⁄]\s*(\d+)`)
	fractionalUnicode      = regexp.MustCompile(`(\d+)\s*([¼½¾⅛⅝])`)
)

// ParseFractionalDimension converts "23 ¾" or "48 5⁄8" into a decimal
// (spec.md §4.5).
func (p *compoundParserService) ParseFractionalDimension(raw string) (models.SpecValue, bool) {
	if m := fractionalSlashPattern.FindStringSubmatch(raw); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return failed(raw), false
		}
		return models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: whole + num/den, RawText: raw}, true
	}

	if m := fractionalUnicode.FindStringSubmatch(raw); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		frac := fractionRunes[[]rune(m[2])[0]]
		return models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: whole + frac, RawText: raw}, true
	}

	if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
		return models.SpecValue{Kind: models.SpecValueNumeric, NumericVal: v, RawText: raw}, true
	}

	return failed(raw), false
}
