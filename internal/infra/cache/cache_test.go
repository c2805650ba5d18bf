package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"onboarding-service/internal/catalog"
	"onboarding-service/internal/domain"
)

type loaderFunc func(context.Context, domain.Persona) (domain.Catalog, error)

func (f loaderFunc) LoadCatalog(ctx context.Context, p domain.Persona) (domain.Catalog, error) {
	return f(ctx, p)
}

func TestJitterStaysWithinTenPercent(t *testing.T) {
	j := NewJitter()
	for i := 0; i < 200; i++ {
		got := j.TTL(time.Minute)
		if got < time.Minute || got > time.Minute+6*time.Second {
			t.Fatalf("ttl %s outside [1m, 1m6s]", got)
		}
	}
	if got := j.TTL(0); got != 0 {
		t.Fatalf("expected no expiry for zero ttl, got %s", got)
	}
}

func TestLoadValidatedRejectsWrongPersona(t *testing.T) {
	loader := loaderFunc(func(context.Context, domain.Persona) (domain.Catalog, error) {
		return catalog.Builtin()[domain.PersonaEntrepreneur], nil
	})
	_, err := LoadValidated(context.Background(), loader, domain.PersonaCreator)
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog, got %v", err)
	}
}

func TestLoadValidatedRejectsMalformedCatalog(t *testing.T) {
	loader := loaderFunc(func(context.Context, domain.Persona) (domain.Catalog, error) {
		return domain.Catalog{Persona: domain.PersonaCreator}, nil
	})
	_, err := LoadValidated(context.Background(), loader, domain.PersonaCreator)
	if !errors.Is(err, domain.ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog, got %v", err)
	}
}

func TestLoadValidatedPassesLoaderErrors(t *testing.T) {
	boom := errors.New("db down")
	loader := loaderFunc(func(context.Context, domain.Persona) (domain.Catalog, error) {
		return domain.Catalog{}, boom
	})
	if _, err := LoadValidated(context.Background(), loader, domain.PersonaCreator); !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}
