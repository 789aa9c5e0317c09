package impl

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

func newTestRetrievalCache(t *testing.T) (*miniredis.Miniredis, services.RetrievalCacheService) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRetrievalCacheService(client, config.RedisConfig{RetrievalCacheTTL: 60, EnableCache: true})
	return mr, cache
}

func TestRetrievalCache_SetGet_Redis(t *testing.T) {
	mr, cache := newTestRetrievalCache(t)
	defer mr.Close()
	ctx := context.Background()

	pack := &models.ContextPack{LexicalOnly: true}
	key := cache.GenerateCacheKey("what voltage does the T-49 run on", models.RetrievalFilters{}, []string{"TRUE"})

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, key, pack, 60))

	got, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, pack.LexicalOnly, got.LexicalOnly)
}

func TestRetrievalCache_Invalidate(t *testing.T) {
	mr, cache := newTestRetrievalCache(t)
	defer mr.Close()
	ctx := context.Background()

	productID := uuid.New()
	key := cache.GenerateCacheKey("storage capacity", models.RetrievalFilters{ProductID: &productID}, nil)
	require.NoError(t, cache.Set(ctx, key, &models.ContextPack{LexicalOnly: true}, 60))

	require.NoError(t, cache.Invalidate(ctx, "*"))

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found, "invalidate with a wildcard pattern clears every cached entry")
}

func TestRetrievalCache_GenerateCacheKey_StableUnderScopeOrder(t *testing.T) {
	_, cache := newTestRetrievalCache(t)

	a := cache.GenerateCacheKey("q", models.RetrievalFilters{}, []string{"TRUE", "HOSHIZAKI"})
	b := cache.GenerateCacheKey("q", models.RetrievalFilters{}, []string{"HOSHIZAKI", "TRUE"})
	assert.Equal(t, a, b, "brand scope order must not change the cache key")
}

func TestRetrievalCache_DisabledIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRetrievalCacheService(client, config.RedisConfig{RetrievalCacheTTL: 60, EnableCache: false})
	ctx := context.Background()

	key := cache.GenerateCacheKey("q", models.RetrievalFilters{}, nil)
	require.NoError(t, cache.Set(ctx, key, &models.ContextPack{LexicalOnly: true}, 60))

	_, found, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found, "a disabled cache never stores or serves entries")
}
