package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/coldcatalog/catalog-service/catalogerr"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// ConflictHandlers serves the pending-conflicts list and resolve endpoints
// (spec.md §4.7, §6, §8 testable property 6: a conflict's resolution is
// applied exactly once).
type ConflictHandlers struct {
	conflicts services.ConflictStore
	audit     services.AuditStore
}

// NewConflictHandlers constructs the conflict handlers.
func NewConflictHandlers(conflicts services.ConflictStore, audit services.AuditStore) *ConflictHandlers {
	return &ConflictHandlers{conflicts: conflicts, audit: audit}
}

func (h *ConflictHandlers) ListConflicts(c *gin.Context) {
	var filter models.ConflictListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid query parameters", err))
		return
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	conflicts, err := h.conflicts.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conflicts": conflicts})
}

func (h *ConflictHandlers) ResolveConflict(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindValidation, "invalid conflict id", err))
		return
	}

	var req models.ConflictResolveRequest
	if err := bindAndValidate(c, &req); err != nil {
		writeError(c, err)
		return
	}
	if req.Resolution == models.ConflictManualOverride && req.OverrideValue == nil {
		writeError(c, catalogerr.New(catalogerr.KindValidation, "override_value is required for manual_override"))
		return
	}

	ctx := c.Request.Context()
	now := time.Now()
	if err := h.conflicts.Resolve(ctx, id, req.Resolution, req.OverrideValue, now); err != nil {
		writeError(c, err)
		return
	}

	caller := callerFromContext(c)
	if err := h.audit.Record(ctx, models.AuditLogEntry{
		ID:         uuid.New(),
		EntityType: "spec_conflict",
		EntityID:   id,
		Action:     "resolve:" + string(req.Resolution),
		CallerID:   caller.CallerID,
		Role:       string(caller.Role),
		CreatedAt:  now,
	}); err != nil {
		writeError(c, catalogerr.Wrap(catalogerr.KindStoreUnavailable, "conflict resolved but audit write failed", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
