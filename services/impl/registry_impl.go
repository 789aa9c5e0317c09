package impl

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/coldcatalog/catalog-service/models"
	"github.com/coldcatalog/catalog-service/services"
)

// registryInvalidationChannel names the registry's pub/sub invalidation
// broadcast, generalized from the teacher's cacheServiceImpl key prefixing
// (services/impl/cache_service_impl.go).
const registryInvalidationChannel = "catalog:registry:invalidate"

// registryService implements services.RegistryService (spec.md §4.6): GORM-
// backed persistence fronted by an in-memory read cache, invalidated either
// locally or via a Redis pub/sub broadcast so multiple orchestrator replicas
// stay in sync.
type registryService struct {
	store services.RegistryStore

	mu        sync.RWMutex
	byName    map[string]*models.SpecRegistryEntry
	bySynonym map[string]string // normalized label -> canonical_name

	redisClient *redis.Client
}

// NewRegistryService constructs the Spec Registry. redisClient may be nil, in
// which case invalidation stays process-local (spec.md §4.6 does not require
// cross-process fan-out for a single-instance deployment).
func NewRegistryService(store services.RegistryStore, redisClient *redis.Client) services.RegistryService {
	svc := &registryService{
		store:       store,
		byName:      make(map[string]*models.SpecRegistryEntry),
		bySynonym:   make(map[string]string),
		redisClient: redisClient,
	}
	if redisClient != nil {
		go svc.subscribeInvalidations()
	}
	return svc
}

func (s *registryService) subscribeInvalidations() {
	ctx := context.Background()
	sub := s.redisClient.Subscribe(ctx, registryInvalidationChannel)
	defer sub.Close()
	ch := sub.Channel()
	for range ch {
		s.dropCache()
	}
}

func (s *registryService) dropCache() {
	s.mu.Lock()
	s.byName = make(map[string]*models.SpecRegistryEntry)
	s.bySynonym = make(map[string]string)
	s.mu.Unlock()
}

func (s *registryService) Lookup(ctx context.Context, canonicalName string) (*models.SpecRegistryEntry, error) {
	s.mu.RLock()
	if entry, ok := s.byName[canonicalName]; ok {
		s.mu.RUnlock()
		return entry, nil
	}
	s.mu.RUnlock()

	entry, err := s.store.GetEntry(ctx, canonicalName)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	s.mu.Lock()
	s.byName[canonicalName] = entry
	s.mu.Unlock()
	return entry, nil
}

func (s *registryService) Resolve(ctx context.Context, label string) (string, bool, error) {
	s.mu.RLock()
	if canonical, ok := s.bySynonym[label]; ok {
		s.mu.RUnlock()
		return canonical, true, nil
	}
	s.mu.RUnlock()

	entry, err := s.store.ResolveSynonym(ctx, label)
	if err != nil {
		return "", false, err
	}
	if entry == nil {
		return "", false, nil
	}

	s.mu.Lock()
	s.bySynonym[label] = entry.CanonicalName
	s.byName[entry.CanonicalName] = entry
	s.mu.Unlock()
	return entry.CanonicalName, true, nil
}

// RegisterAuto is idempotent on canonical_name (spec.md §4.6): the label
// itself, normalized, becomes the canonical_name when no entry exists yet.
func (s *registryService) RegisterAuto(ctx context.Context, label string, inferredType models.SpecDataType) (string, error) {
	canonical := normalizeLabel(label)

	existing, err := s.store.GetEntry(ctx, canonical)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.CanonicalName, nil
	}

	entry := &models.SpecRegistryEntry{
		CanonicalName:  canonical,
		DisplayName:    label,
		DataType:       inferredType,
		Synonyms:       []string{label},
		AutoDiscovered: true,
		Approved:       false,
	}
	if err := s.store.PutEntry(ctx, entry); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.byName[canonical] = entry
	s.bySynonym[normalizeLabel(label)] = canonical
	s.mu.Unlock()

	if err := s.Invalidate(ctx); err != nil {
		return canonical, fmt.Errorf("registered %s but invalidation broadcast failed: %w", canonical, err)
	}
	return canonical, nil
}

func (s *registryService) Approve(ctx context.Context, canonicalName string) error {
	entry, err := s.store.GetEntry(ctx, canonicalName)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("no registry entry for canonical_name %q", canonicalName)
	}
	entry.Approved = true
	if err := s.store.PutEntry(ctx, entry); err != nil {
		return err
	}
	return s.Invalidate(ctx)
}

// NormalizeUnit applies the Registry's small fixed conversion dispatch table
// (spec.md §4.6). Only the conversions actually named in the spec are wired;
// an unrecognized unit is returned unconverted with an error.
func (s *registryService) NormalizeUnit(ctx context.Context, canonicalName string, rawValue float64, rawUnit string) (float64, error) {
	entry, err := s.Lookup(ctx, canonicalName)
	if err != nil {
		return 0, err
	}
	if entry == nil {
		return 0, fmt.Errorf("no registry entry for canonical_name %q", canonicalName)
	}
	if rawUnit == "" || rawUnit == entry.Unit {
		return rawValue, nil
	}

	conversion, ok := entry.UnitConversions[rawUnit]
	if !ok {
		return rawValue, fmt.Errorf("no conversion registered from unit %q to %q for %q", rawUnit, entry.Unit, canonicalName)
	}
	return applyConversion(conversion, rawValue)
}

func applyConversion(conversion string, value float64) (float64, error) {
	switch conversion {
	case "convert_f_to_c":
		return fahrenheitToCelsius(value), nil
	case "convert_in_to_cm":
		return value * 2.54, nil
	case "convert_lb_to_kg":
		return value * 0.453592, nil
	default:
		var factor float64
		if _, err := fmt.Sscanf(conversion, "%g", &factor); err != nil {
			return value, fmt.Errorf("unrecognized conversion dispatch %q", conversion)
		}
		return value * factor, nil
	}
}

// Invalidate clears the local cache and, if Redis is configured, broadcasts
// to other replicas (generalizing the teacher's InvalidateCache pattern in
// services/impl/cache_service_impl.go from a key-pattern scan to a single
// "reload everything" signal, appropriate for a small read-mostly table).
func (s *registryService) Invalidate(ctx context.Context) error {
	s.dropCache()
	if s.redisClient == nil {
		return nil
	}
	if err := s.redisClient.Publish(ctx, registryInvalidationChannel, "reload").Err(); err != nil {
		return fmt.Errorf("failed to broadcast registry invalidation: %w", err)
	}
	return nil
}
