package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// RecommendHandlers serves the recommend endpoint (spec.md §4.11, §6).
type RecommendHandlers struct {
	recommendation services.RecommendationService
}

// NewRecommendHandlers constructs the recommend handler.
func NewRecommendHandlers(recommendation services.RecommendationService) *RecommendHandlers {
	return &RecommendHandlers{recommendation: recommendation}
}

func (h *RecommendHandlers) Recommend(c *gin.Context) {
	var req models.RecommendRequest
	if err := bindAndValidate(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.UseCase == "" && req.UseCaseText == "" {
		writeError(c, catalogerr.New(catalogerr.KindValidation, "use_case or use_case_text is required"))
		return
	}

	resp, err := h.recommendation.Recommend(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
