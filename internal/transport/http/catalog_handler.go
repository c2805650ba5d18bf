package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"onboarding-service/internal/app"
	"onboarding-service/internal/domain"

	"github.com/rs/zerolog"
)

// CatalogHandler serves a persona's questions so surfaces know which input
// affordance each question needs.
type CatalogHandler struct {
	catalogs app.CatalogRepository
	logger   zerolog.Logger
}

func NewCatalogHandler(catalogs app.CatalogRepository, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{catalogs: catalogs, logger: logger}
}

// ServeHTTP expects to be mounted on "GET /catalogs/{persona}".
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	persona, err := domain.ParsePersona(r.PathValue("persona"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	c, err := h.catalogs.GetCatalog(r.Context(), persona)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrCatalogNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Error().Err(err).Str("persona", string(persona)).Msg("serve catalog")
		http.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		h.logger.Debug().Err(err).Msg("write catalog response")
	}
}
