package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"
)

func TestCatalogRepositoryCaches(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewBuiltinCatalogLoader()}
	repo := NewCatalogRepository(loader, time.Minute)

	c, err := repo.GetCatalog(context.Background(), domain.PersonaCreator)
	if err != nil {
		t.Fatalf("get catalog: %v", err)
	}
	if len(c.Questions) != 7 {
		t.Fatalf("expected 7 creator questions, got %d", len(c.Questions))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetCatalog(context.Background(), domain.PersonaCreator); err != nil {
		t.Fatalf("get catalog 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestCatalogRepositoryReturnsCopies(t *testing.T) {
	repo := NewCatalogRepository(NewBuiltinCatalogLoader(), time.Minute)

	first, _ := repo.GetCatalog(context.Background(), domain.PersonaCreator)
	first.Questions[1].Options[0] = "mutated"

	second, _ := repo.GetCatalog(context.Background(), domain.PersonaCreator)
	if second.Questions[1].Options[0] != "Tech Reviews" {
		t.Fatalf("cache entry was mutated through a returned catalog")
	}
}

func TestCatalogRepositoryRejectsInvalidCatalog(t *testing.T) {
	broken := catalog.Builtin()
	c := broken[domain.PersonaEntrepreneur]
	c.Questions[1].Options = nil
	broken[domain.PersonaEntrepreneur] = c

	repo := NewCatalogRepository(NewStaticCatalogLoader(broken), time.Minute)
	_, err := repo.GetCatalog(context.Background(), domain.PersonaEntrepreneur)
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog error, got %v", err)
	}
}

func TestStaticCatalogLoaderMissingPersona(t *testing.T) {
	loader := NewStaticCatalogLoader(map[domain.Persona]domain.Catalog{})
	_, err := loader.LoadCatalog(context.Background(), domain.PersonaCreator)
	if !errors.Is(err, domain.ErrCatalogNotFound) {
		t.Fatalf("expected catalog not found, got %v", err)
	}
}

type countingLoader struct {
	CatalogLoader
	calls int
}

func (l *countingLoader) LoadCatalog(ctx context.Context, persona domain.Persona) (domain.Catalog, error) {
	l.calls++
	return l.CatalogLoader.LoadCatalog(ctx, persona)
}

func TestCatalogRepositoryInvalidate(t *testing.T) {
	loader := &countingLoader{CatalogLoader: NewBuiltinCatalogLoader()}
	repo := NewCatalogRepository(loader, time.Minute)

	_, _ = repo.GetCatalog(context.Background(), domain.PersonaCreator)
	repo.Invalidate(domain.PersonaCreator)
	if _, err := repo.GetCatalog(context.Background(), domain.PersonaCreator); err != nil {
		t.Fatalf("get catalog after invalidate: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, calls=%d", loader.calls)
	}
}

func TestCatalogRepositoryRejectsMislabelledCatalog(t *testing.T) {
	swapped := catalog.Builtin()
	swapped[domain.PersonaCreator] = swapped[domain.PersonaEntrepreneur]

	repo := NewCatalogRepository(NewStaticCatalogLoader(swapped), time.Minute)
	_, err := repo.GetCatalog(context.Background(), domain.PersonaCreator)
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog error, got %v", err)
	}
}
