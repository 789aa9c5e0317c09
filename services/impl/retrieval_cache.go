package impl

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coldcatalog/catalog-service/config"
	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

const retrievalCacheKeyPrefix = "retrieval_ctx"

// retrievalCacheEntry is the in-memory fallback entry, mirroring the teacher's
// cacheEntry shape (services/impl/cache_service_impl.go).
type retrievalCacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// retrievalCacheService implements services.RetrievalCacheService
// (SPEC_FULL.md §4.9a), directly generalizing the teacher's cacheServiceImpl
// (services/impl/cache_service_impl.go) from DocumentContextResult to
// ContextPack: Redis-backed with an in-memory fallback, SHA-256 keys, and
// prefix-scan invalidation.
type retrievalCacheService struct {
	memCache map[string]retrievalCacheEntry
	mu       sync.RWMutex

	redis    *redis.Client
	useRedis bool

	defaultTTL int
	enabled    bool
}

// NewRetrievalCacheService constructs the retrieval result cache. redisClient
// may be nil, in which case the cache runs purely in-memory.
func NewRetrievalCacheService(redisClient *redis.Client, cfg config.RedisConfig) services.RetrievalCacheService {
	svc := &retrievalCacheService{
		memCache:   make(map[string]retrievalCacheEntry),
		defaultTTL: cfg.RetrievalCacheTTL,
		enabled:    cfg.EnableCache,
	}
	if cfg.EnableCache && redisClient != nil {
		svc.redis = redisClient
		svc.useRedis = true
	}
	return svc
}

func (s *retrievalCacheService) prefixKey(key string) string {
	return fmt.Sprintf("%s:%s", retrievalCacheKeyPrefix, key)
}

func (s *retrievalCacheService) Get(ctx context.Context, cacheKey string) (*models.ContextPack, bool, error) {
	if !s.enabled {
		return nil, false, nil
	}
	prefixedKey := s.prefixKey(cacheKey)

	if s.useRedis {
		data, err := s.redis.Get(ctx, prefixedKey).Bytes()
		if err == nil {
			var pack models.ContextPack
			if jsonErr := json.Unmarshal(data, &pack); jsonErr != nil {
				s.redis.Del(ctx, prefixedKey)
				return nil, false, nil
			}
			return &pack, true, nil
		}
		if err != redis.Nil {
			return s.getFromMemCache(prefixedKey)
		}
		return nil, false, nil
	}

	return s.getFromMemCache(prefixedKey)
}

func (s *retrievalCacheService) getFromMemCache(prefixedKey string) (*models.ContextPack, bool, error) {
	s.mu.RLock()
	entry, exists := s.memCache[prefixedKey]
	s.mu.RUnlock()
	if !exists {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.memCache, prefixedKey)
		s.mu.Unlock()
		return nil, false, nil
	}

	var pack models.ContextPack
	if err := json.Unmarshal(entry.data, &pack); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached context pack: %w", err)
	}
	return &pack, true, nil
}

func (s *retrievalCacheService) Set(ctx context.Context, cacheKey string, pack *models.ContextPack, ttlSeconds int) error {
	if !s.enabled || pack == nil {
		return nil
	}
	data, err := json.Marshal(pack)
	if err != nil {
		return fmt.Errorf("failed to marshal context pack for caching: %w", err)
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = time.Duration(s.defaultTTL) * time.Second
	}

	prefixedKey := s.prefixKey(cacheKey)
	if s.useRedis {
		if err := s.redis.Set(ctx, prefixedKey, data, ttl).Err(); err != nil {
			s.setInMemCache(prefixedKey, data, ttl)
			return nil
		}
		return nil
	}
	s.setInMemCache(prefixedKey, data, ttl)
	return nil
}

func (s *retrievalCacheService) setInMemCache(prefixedKey string, data []byte, ttl time.Duration) {
	s.mu.Lock()
	s.memCache[prefixedKey] = retrievalCacheEntry{data: data, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
}

func (s *retrievalCacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.enabled {
		return nil
	}
	prefixedPattern := s.prefixKey(pattern)

	if s.useRedis {
		var cursor uint64
		for {
			keys, next, err := s.redis.Scan(ctx, cursor, prefixedPattern, 100).Result()
			if err != nil {
				break
			}
			if len(keys) > 0 {
				s.redis.Del(ctx, keys...)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.memCache {
		if matchCachePattern(key, prefixedPattern) {
			delete(s.memCache, key)
		}
	}
	return nil
}

func matchCachePattern(key, pattern string) bool {
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(key, prefix)
	}
	return key == pattern
}

// GenerateCacheKey hashes the query plus structured filters and brand scope
// (SPEC_FULL.md §4.9a), mirroring the teacher's GenerateCacheKey
// (services/impl/cache_service_impl.go).
func (s *retrievalCacheService) GenerateCacheKey(query string, filters models.RetrievalFilters, brandScope []string) string {
	scope := append([]string(nil), brandScope...)
	sort.Strings(scope)

	h := sha256.New()
	h.Write([]byte(query))
	if filters.ProductID != nil {
		h.Write([]byte(filters.ProductID.String()))
	}
	h.Write([]byte(filters.Brand))
	certs := append([]string(nil), filters.Certifications...)
	sort.Strings(certs)
	h.Write([]byte(strings.Join(certs, ",")))
	h.Write([]byte(strings.Join(scope, ",")))

	return hex.EncodeToString(h.Sum(nil))[:24]
}
