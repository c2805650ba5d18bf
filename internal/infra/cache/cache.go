// Package cache holds what the memory and Redis catalog repositories share:
// the loader contract, load-time validation and jittered expirations.
package cache

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"
)

// CatalogLoader fetches a persona's catalog from a backing store (e.g., Postgres).
type CatalogLoader interface {
	LoadCatalog(ctx context.Context, persona domain.Persona) (domain.Catalog, error)
}

// LoadValidated loads persona's catalog and rejects it unless it is well formed
// and belongs to persona. Nothing invalid ever reaches a cache.
func LoadValidated(ctx context.Context, loader CatalogLoader, persona domain.Persona) (domain.Catalog, error) {
	c, err := loader.LoadCatalog(ctx, persona)
	if err != nil {
		return domain.Catalog{}, err
	}
	if c.Persona != persona {
		return domain.Catalog{}, fmt.Errorf("%w: asked for %s, loader returned %q", domain.ErrInvalidCatalog, persona, c.Persona)
	}
	if err := catalog.Validate(c); err != nil {
		return domain.Catalog{}, fmt.Errorf("load %s catalog: %w", persona, err)
	}
	return c, nil
}

// Jitter spreads expirations so cached catalogs don't all expire together.
type Jitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewJitter() *Jitter {
	return &Jitter{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// TTL returns ttl plus up to 10%. A non-positive ttl means no expiry and is returned as 0.
func (j *Jitter) TTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return ttl + time.Duration(j.rnd.Int63n(int64(ttl)/10+1))
}
