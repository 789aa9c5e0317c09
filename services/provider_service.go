package services

import "context"

// ProviderErrorClass classifies a provider failure as retryable or not
// (spec.md §6: "Errors surface as {transient, permanent}").
type ProviderErrorClass string

const (
	ProviderErrorTransient ProviderErrorClass = "transient"
	ProviderErrorPermanent ProviderErrorClass = "permanent"
)

// ProviderError wraps a provider-client failure with its error class.
type ProviderError struct {
	Class   ProviderErrorClass
	Status  int
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// EmbedderClient is the external embed(model, text) -> float[dim] function
// (spec.md §6.2). Batching is a caller concern (the orchestrator's embed step).
type EmbedderClient interface {
	Embed(ctx context.Context, model string, texts []string) ([][]float32, error)
}

// GeneratorClient is the external generate(model, prompt, params) -> text
// function (spec.md §6.2). Only the HTTP adapter's ask handler calls it; the
// Retrieval Engine never does.
type GeneratorClient interface {
	Generate(ctx context.Context, model, prompt string, params map[string]any) (string, error)
}

// ExternalExtractorClient is the external byte->text provider backing the PDF
// branch of the Text Extractor (spec.md §4.1, §6.2).
type ExternalExtractorClient interface {
	ExtractPDF(ctx context.Context, fileBytes []byte) (string, error)
}
