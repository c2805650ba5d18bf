package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"
	"onboarding-service/internal/infra/cache"

	"golang.org/x/sync/singleflight"
)

// CatalogLoader fetches a persona's catalog from a backing store (e.g., Postgres).
type CatalogLoader = cache.CatalogLoader

// CatalogRepository caches validated catalogs with TTL to avoid repeated DB hits.
type CatalogRepository struct {
	loader CatalogLoader
	ttl    time.Duration
	jitter *cache.Jitter
	clock  func() time.Time
	sf     singleflight.Group

	mu      sync.RWMutex
	entries map[domain.Persona]cachedCatalog
}

type cachedCatalog struct {
	catalog   domain.Catalog
	expiresAt time.Time
}

func NewCatalogRepository(loader CatalogLoader, ttl time.Duration) *CatalogRepository {
	return &CatalogRepository{
		loader:  loader,
		ttl:     ttl,
		jitter:  cache.NewJitter(),
		clock:   time.Now,
		entries: make(map[domain.Persona]cachedCatalog),
	}
}

func (r *CatalogRepository) GetCatalog(ctx context.Context, persona domain.Persona) (domain.Catalog, error) {
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.entries[persona]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return entry.catalog.Clone(), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(string(persona), func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.entries[persona]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.catalog, nil
		}
		r.mu.RUnlock()

		c, err := cache.LoadValidated(ctx, r.loader, persona)
		if err != nil {
			return domain.Catalog{}, err
		}

		r.mu.Lock()
		r.entries[persona] = cachedCatalog{
			catalog:   c,
			expiresAt: now.Add(r.jitter.TTL(r.ttl)),
		}
		r.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return domain.Catalog{}, err
	}
	return result.(domain.Catalog).Clone(), nil
}

// Invalidate drops the cached catalog so the next read goes to the loader.
func (r *CatalogRepository) Invalidate(persona domain.Persona) {
	r.mu.Lock()
	delete(r.entries, persona)
	r.mu.Unlock()
}

// StaticCatalogLoader is a loader backed by an in-memory map (built-in catalogs, tests).
type StaticCatalogLoader struct {
	catalogs map[domain.Persona]domain.Catalog
}

func NewStaticCatalogLoader(catalogs map[domain.Persona]domain.Catalog) *StaticCatalogLoader {
	return &StaticCatalogLoader{catalogs: catalogs}
}

// NewBuiltinCatalogLoader serves the catalogs compiled into the binary.
func NewBuiltinCatalogLoader() *StaticCatalogLoader {
	return NewStaticCatalogLoader(catalog.Builtin())
}

func (l *StaticCatalogLoader) LoadCatalog(_ context.Context, persona domain.Persona) (domain.Catalog, error) {
	if c, ok := l.catalogs[persona]; ok {
		return c.Clone(), nil
	}
	return domain.Catalog{}, fmt.Errorf("%w: %s", domain.ErrCatalogNotFound, persona)
}
