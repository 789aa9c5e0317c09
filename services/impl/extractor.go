package impl

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/services"
)

// textExtractorService implements services.ExtractorService (spec.md §4.1).
type textExtractorService struct {
	externalExtractor services.ExternalExtractorClient
}

// NewExtractorService constructs the Text Extractor.
func NewExtractorService(externalExtractor services.ExternalExtractorClient) services.ExtractorService {
	return &textExtractorService{externalExtractor: externalExtractor}
}

func (s *textExtractorService) Extract(ctx context.Context, fileBytes []byte, mimeType string) (*services.ExtractionResult, error) {
	switch {
	case mimeType == "application/pdf":
		return s.extractPDF(ctx, fileBytes)
	case mimeType == "text/plain" || mimeType == "text/markdown" || strings.HasPrefix(mimeType, "text/"):
		return s.extractText(fileBytes), nil
	default:
		return nil, catalogerr.New(catalogerr.KindUnsupportedFormat, "unsupported MIME type: "+mimeType)
	}
}

func (s *textExtractorService) extractPDF(ctx context.Context, fileBytes []byte) (*services.ExtractionResult, error) {
	text, err := s.externalExtractor.ExtractPDF(ctx, fileBytes)
	if err != nil {
		return nil, catalogerr.Wrap(catalogerr.KindExtractionFailed, "PDF extraction provider call failed", err)
	}
	if text == "" {
		return nil, catalogerr.New(catalogerr.KindExtractionFailed, "PDF extraction provider returned no text")
	}
	return &services.ExtractionResult{
		PlainText: text,
		Pages:     splitPages(text, '\f'),
		Metadata:  map[string]string{"source": "pdf_provider"},
	}, nil
}

// extractText decodes text/markdown bytes as UTF-8 with lossy replacement on
// invalid sequences, then synthesizes pages by form-feed or heading
// (spec.md §4.1).
func (s *textExtractorService) extractText(fileBytes []byte) *services.ExtractionResult {
	text := toValidUTF8(fileBytes)
	return &services.ExtractionResult{
		PlainText: text,
		Pages:     splitPagesByHeadingOrFormFeed(text),
		Metadata:  map[string]string{"source": "text_decode"},
	}
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}

func splitPages(text string, sep rune) []services.ExtractedPage {
	parts := strings.Split(text, string(sep))
	pages := make([]services.ExtractedPage, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, services.ExtractedPage{PageNo: i + 1, Text: p})
	}
	return pages
}

func splitPagesByHeadingOrFormFeed(text string) []services.ExtractedPage {
	if strings.Contains(text, "\f") {
		return splitPages(text, '\f')
	}
	lines := strings.Split(text, "\n")
	var pages []services.ExtractedPage
	var current strings.Builder
	pageNo := 1
	flush := func() {
		if current.Len() > 0 {
			pages = append(pages, services.ExtractedPage{PageNo: pageNo, Text: current.String()})
			pageNo++
			current.Reset()
		}
	}
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") && current.Len() > 0 {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	if len(pages) == 0 {
		pages = append(pages, services.ExtractedPage{PageNo: 1, Text: text})
	}
	return pages
}
