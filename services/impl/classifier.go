package impl

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// documentClassifierService implements services.ClassifierService with the
// deterministic, case-insensitive priority rules of spec.md §4.2.
type documentClassifierService struct {
	brandCodes []string
	now        func() time.Time
}

// NewClassifierService constructs the Document Classifier. brandCodes is the
// known set of brand codes/product-line tokens scanned for brand detection.
func NewClassifierService(brandCodes []string, now func() time.Time) services.ClassifierService {
	return &documentClassifierService{brandCodes: brandCodes, now: now}
}

var revisionPattern = regexp.MustCompile(`(?i)rev[_\s\-]?(\d{1,2})[.\-/](\d{1,2})[.\-/](\d{4}|\d{2})`)

func (s *documentClassifierService) Classify(ctx context.Context, text, filename string) (*services.ClassificationResult, error) {
	lower := strings.ToLower(text)

	docType := models.DocTypeOther
	switch {
	case strings.Contains(lower, "cutsheet"):
		docType = models.DocTypeCutSheet
	case hasPerformanceSection(lower):
		docType = models.DocTypePerformanceDataSheet
	case strings.Contains(lower, "product data sheet") && hasStructuredSections(lower):
		docType = models.DocTypeProductDataSheet
	case hasFeatureBulletList(lower):
		docType = models.DocTypeFeatureList
	case hasDimensionalCalloutsOnly(lower):
		docType = models.DocTypeDimensionalDrawing
	}

	brand := s.detectBrand(lower)
	revision := s.parseRevision(text)

	return &services.ClassificationResult{
		DocType:   docType,
		BrandCode: brand,
		Revision:  revision,
	}, nil
}

func hasPerformanceSection(lower string) bool {
	if !strings.Contains(lower, "performance") {
		return false
	}
	for _, marker := range []string{"probe", "uniformity", "stability"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func hasStructuredSections(lower string) bool {
	count := 0
	for _, marker := range []string{"features", "specifications", "dimensions", "electrical"} {
		if strings.Contains(lower, marker) {
			count++
		}
	}
	return count >= 2
}

var featureBulletPattern = regexp.MustCompile(`(?m)^\s*[•\-*]\s+\S`)

func hasFeatureBulletList(lower string) bool {
	return len(featureBulletPattern.FindAllString(lower, -1)) >= 3
}

var dimensionalPattern = regexp.MustCompile(`\d+(\.\d+)?\s*(in|inch|cm|mm)\b`)

func hasDimensionalCalloutsOnly(lower string) bool {
	matches := dimensionalPattern.FindAllString(lower, -1)
	return len(matches) >= 2 && !strings.Contains(lower, "specifications")
}

// detectBrand scans for brand codes, ties broken by earliest position.
func (s *documentClassifierService) detectBrand(lower string) string {
	bestPos := -1
	bestBrand := ""
	for _, brand := range s.brandCodes {
		idx := strings.Index(lower, strings.ToLower(brand))
		if idx < 0 {
			continue
		}
		if bestPos == -1 || idx < bestPos {
			bestPos = idx
			bestBrand = brand
		}
	}
	return bestBrand
}

// parseRevision matches Rev[_ -]?MM.DD.YY(YY) and normalizes to ISO date;
// ambiguous two-digit years assume the current or prior century by proximity
// to "now" (spec.md §4.2).
func (s *documentClassifierService) parseRevision(text string) string {
	m := revisionPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year := normalizeYear(m[3], s.now())
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
}

func normalizeYear(yearStr string, now time.Time) int {
	if len(yearStr) == 4 {
		y, _ := strconv.Atoi(yearStr)
		return y
	}
	y2, _ := strconv.Atoi(yearStr)
	currentCentury := (now.Year() / 100) * 100
	candidate := currentCentury + y2
	// Proximity to today: prefer whichever century puts the date closest to now.
	prevCentury := candidate - 100
	if absInt(candidate-now.Year()) <= absInt(prevCentury-now.Year()) {
		return candidate
	}
	return prevCentury
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
