package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"
	"onboarding-service/internal/infra/cache"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a persona's catalog from a backing store (e.g., Postgres).
type CatalogLoader = cache.CatalogLoader

// CatalogRepository caches validated catalogs in Redis and falls back to a loader on cache miss.
// Catalogs are stored as JSON: SET onboarding:catalog:{persona} {catalog} EX ttl
type CatalogRepository struct {
	client *redis.Client
	loader CatalogLoader
	ttl    time.Duration
	jitter *cache.Jitter
	sf     singleflight.Group
	logger zerolog.Logger
}

func NewCatalogRepository(client *redis.Client, loader CatalogLoader, ttl time.Duration, logger zerolog.Logger) *CatalogRepository {
	return &CatalogRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		jitter: cache.NewJitter(),
		logger: logger,
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, persona domain.Persona) (domain.Catalog, error) {
	if c, ok := r.cached(ctx, persona); ok {
		return c, nil
	}

	result, err, _ := r.sf.Do(string(persona), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if c, ok := r.cached(ctx, persona); ok {
			return c, nil
		}

		c, err := cache.LoadValidated(ctx, r.loader, persona)
		if err != nil {
			return domain.Catalog{}, err
		}

		data, err := json.Marshal(c)
		if err != nil {
			return domain.Catalog{}, fmt.Errorf("marshal catalog: %w", err)
		}
		if err := r.client.Set(ctx, r.key(persona), data, r.jitter.TTL(r.ttl)).Err(); err != nil {
			// The loaded catalog is still good; the next call retries the cache write.
			r.logger.Warn().Err(err).Str("persona", string(persona)).Msg("cache catalog in redis")
		}
		return c, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog).Clone(), nil
}

// Invalidate drops the cached catalog so the next read goes to the loader.
func (r *CatalogRepository) Invalidate(ctx context.Context, persona domain.Persona) error {
	return r.client.Del(ctx, r.key(persona)).Err()
}

func (r *CatalogRepository) cached(ctx context.Context, persona domain.Persona) (domain.Catalog, bool) {
	data, err := r.client.Get(ctx, r.key(persona)).Bytes()
	if err != nil {
		return domain.Catalog{}, false
	}
	var c domain.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		r.logger.Warn().Err(err).Str("persona", string(persona)).Msg("discarding unreadable cached catalog")
		return domain.Catalog{}, false
	}
	if c.Persona != persona || catalog.Validate(c) != nil {
		return domain.Catalog{}, false
	}
	return c, true
}

func (r *CatalogRepository) key(persona domain.Persona) string {
	return "onboarding:catalog:" + string(persona)
}
