package services

import (
	"context"

	"github.com/coldcatalog/catalog-service/models"
)

// RetrievalService runs the full query pipeline from spec.md §4.10: parse ->
// filter -> vector search -> lexical search -> RRF fuse -> token-budgeted
// context pack.
type RetrievalService interface {
	Retrieve(ctx context.Context, rawQuery string) (*models.ContextPack, error)
}

// RetrievalCacheService caches assembled context packs by query+filter hash,
// Redis-backed with an in-memory fallback (SPEC_FULL.md §4.9a).
type RetrievalCacheService interface {
	Get(ctx context.Context, cacheKey string) (*models.ContextPack, bool, error)
	Set(ctx context.Context, cacheKey string, pack *models.ContextPack, ttlSeconds int) error
	Invalidate(ctx context.Context, pattern string) error
	GenerateCacheKey(query string, filters models.RetrievalFilters, brandScope []string) string
}
