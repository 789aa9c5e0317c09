package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// CompareHandlers serves the compare endpoint (spec.md §6).
type CompareHandlers struct {
	compare services.CompareService
}

// NewCompareHandlers constructs the compare handler.
func NewCompareHandlers(compare services.CompareService) *CompareHandlers {
	return &CompareHandlers{compare: compare}
}

func (h *CompareHandlers) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := bindAndValidate(c, &req); err != nil {
		writeError(c, err)
		return
	}

	resp, err := h.compare.Compare(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
