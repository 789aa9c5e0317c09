package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// RetrievalHandlers serves the ask endpoint: run the Retrieval Engine, then
// call the external Generator over the resulting context pack (spec.md §6 —
// "the retrieval engine does not itself call the generator").
type RetrievalHandlers struct {
	retrieval services.RetrievalService
	generator services.GeneratorClient
	cfg       config.GeneratorConfig
}

// NewRetrievalHandlers constructs the ask handler.
func NewRetrievalHandlers(retrieval services.RetrievalService, generator services.GeneratorClient, cfg config.GeneratorConfig) *RetrievalHandlers {
	return &RetrievalHandlers{retrieval: retrieval, generator: generator, cfg: cfg}
}

func (h *RetrievalHandlers) Ask(c *gin.Context) {
	var req models.AskRequest
	if err := bindAndValidate(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		fieldErrs := catalogerr.FieldErrors{{Field: "Question", Message: "must not be blank"}}
		writeError(c, fieldErrs.AsCatalogError())
		return
	}

	pack, err := h.retrieval.Retrieve(c.Request.Context(), req.Question)
	if err != nil {
		writeError(c, err)
		return
	}

	if len(pack.Chunks) == 0 {
		c.JSON(http.StatusOK, models.AskResponse{
			Answer:  "No catalog content matched this question.",
			Sources: pack.Chunks,
		})
		return
	}

	answer, err := h.generator.Generate(c.Request.Context(), h.cfg.Model, groundedPrompt(req.Question, pack), nil)
	if err != nil {
		// Generator failure still returns the retrieved sources so the caller
		// can render them without an answer (graceful degradation, spec.md §8).
		c.JSON(http.StatusOK, models.AskResponse{
			Answer:  "",
			Sources: pack.Chunks,
		})
		return
	}

	c.JSON(http.StatusOK, models.AskResponse{Answer: answer, Sources: pack.Chunks})
}

func groundedPrompt(question string, pack *models.ContextPack) string {
	var b strings.Builder
	b.WriteString("Answer the question using only the following catalog excerpts. If the excerpts do not contain the answer, say so.\n\n")
	for i, chunk := range pack.Chunks {
		fmt.Fprintf(&b, "[%d] (doc %s)\n%s\n\n", i+1, chunk.SourceDocID, chunk.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}
