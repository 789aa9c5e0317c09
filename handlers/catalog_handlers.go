package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// CatalogHandlers serves the product listing/lookup, compare/equivalents,
// stats, and health endpoints (spec.md §6), mirroring the teacher's
// AgentHandlers struct-of-service-deps shape (handlers/agent_handlers.go).
type CatalogHandlers struct {
	products services.ProductStore
	compare  services.CompareService
}

// NewCatalogHandlers constructs the catalog read-path handlers.
func NewCatalogHandlers(products services.ProductStore, compare services.CompareService) *CatalogHandlers {
	return &CatalogHandlers{products: products, compare: compare}
}

func (h *CatalogHandlers) ListProducts(c *gin.Context) {
	var filter models.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid query parameters", err))
		return
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	resp, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CatalogHandlers) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid product id", err))
		return
	}

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if product == nil {
		writeError(c, catalogerr.New(catalogerr.KindNotFound, "product not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *CatalogHandlers) GetProductByModelNumber(c *gin.Context) {
	product, err := h.products.GetByModelNumber(c.Request.Context(), c.Param("model_number"))
	if err != nil {
		writeError(c, err)
		return
	}
	if product == nil {
		writeError(c, catalogerr.New(catalogerr.KindNotFound, "product not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

func (h *CatalogHandlers) EquivalentsOf(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid product id", err))
		return
	}
	maxDepth := 3
	resp, err := h.compare.Equivalents(c.Request.Context(), id, maxDepth)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stats reports coarse catalog counts; a few cheap COUNT-shaped List/Job
// queries rather than a dedicated aggregate table, since spec.md §6 leaves
// the shape to the adapter.
func (h *CatalogHandlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	var activeTotal int64
	active, err := h.products.List(ctx, models.ProductListFilter{Status: string(models.ProductStatusActive), Page: 1, PageSize: 1})
	if err != nil {
		log.Printf("[WARN] stats: failed to count active products: %v", err)
	} else {
		activeTotal = active.Total
	}

	c.JSON(http.StatusOK, gin.H{
		"active_products": activeTotal,
		"timestamp":       time.Now(),
	})
}

func (h *CatalogHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "catalog-service",
		"timestamp": time.Now(),
	})
}
