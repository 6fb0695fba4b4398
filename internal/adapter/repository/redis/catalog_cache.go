package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/coinledger/internal/domain"
	"github.com/iho/coinledger/internal/usecase"
)

const (
	catalogListKey       = "catalog:list:"
	catalogItemKey       = "catalog:item:"
	catalogGenerationKey = "catalog:generation"

	// DefaultCatalogTTL bounds how long a catalog read may be served from Redis.
	DefaultCatalogTTL = 5 * time.Minute
)

// CachedCatalogRepository is a read-through cache in front of a CatalogRepository.
// Items are immutable once created, so entries are only dropped on Create and expiry.
// Listings are keyed by a generation that Create bumps, so a listing read before a
// Create can only ever be written under a generation nobody reads any more.
// Cache failures fall through to the wrapped repository.
type CachedCatalogRepository struct {
	next   usecase.CatalogRepository
	cache  *Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedCatalogRepository wraps next with cache.
func NewCachedCatalogRepository(next usecase.CatalogRepository, cache *Cache, ttl time.Duration, logger zerolog.Logger) *CachedCatalogRepository {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}

	return &CachedCatalogRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

type cachedItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

func toCached(item *domain.CatalogItem) cachedItem {
	return cachedItem{ID: item.ID, Name: item.Name, Price: item.Price, CreatedAt: item.CreatedAt}
}

func (c cachedItem) toDomain() *domain.CatalogItem {
	return &domain.CatalogItem{ID: c.ID, Name: c.Name, Price: c.Price, CreatedAt: c.CreatedAt}
}

// Create adds the item and invalidates the cached listing.
func (r *CachedCatalogRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}

	if _, err := r.cache.Incr(ctx, catalogGenerationKey); err != nil {
		r.logger.Warn().Err(err).Str("item", item.Name).Msg("catalog cache invalidation failed")
	}
	if err := r.cache.Delete(ctx, catalogItemKey+item.Name); err != nil {
		r.logger.Warn().Err(err).Str("item", item.Name).Msg("catalog cache invalidation failed")
	}

	return nil
}

// GetByName returns the item, caching only successful lookups.
func (r *CachedCatalogRepository) GetByName(ctx context.Context, name string) (*domain.CatalogItem, error) {
	key := catalogItemKey + domain.NormalizeItemName(name)

	var cached cachedItem
	if r.load(ctx, key, &cached) {
		return cached.toDomain(), nil
	}

	item, err := r.next.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}

	r.store(ctx, key, toCached(item))

	return item, nil
}

// List returns the catalog in insertion order.
func (r *CachedCatalogRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	key, ok := r.listKey(ctx)
	if !ok {
		return r.next.List(ctx)
	}

	var cached []cachedItem
	if r.load(ctx, key, &cached) {
		items := make([]*domain.CatalogItem, 0, len(cached))
		for _, c := range cached {
			items = append(items, c.toDomain())
		}
		return items, nil
	}

	items, err := r.next.List(ctx)
	if err != nil {
		return nil, err
	}

	toStore := make([]cachedItem, 0, len(items))
	for _, item := range items {
		toStore = append(toStore, toCached(item))
	}
	r.store(ctx, key, toStore)

	return items, nil
}

// listKey names the listing for the current generation. It must be read before the
// wrapped repository is.
func (r *CachedCatalogRepository) listKey(ctx context.Context) (string, bool) {
	raw, err := r.cache.Get(ctx, catalogGenerationKey)
	switch {
	case errors.Is(err, redis.Nil):
		return catalogListKey + "0", true
	case err != nil:
		r.logger.Warn().Err(err).Msg("catalog cache read failed")
		return "", false
	}

	return catalogListKey + string(raw), true
}

func (r *CachedCatalogRepository) load(ctx context.Context, key string, dst any) bool {
	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
		return false
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache entry is corrupt")
		return false
	}

	return true
}

func (r *CachedCatalogRepository) store(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, key, raw, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
}
