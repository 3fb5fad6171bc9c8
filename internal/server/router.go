package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether the rebuild endpoint requires a Bearer token.
// sseHandler, if non-nil, is mounted at GET /events.
// rebuild, if non-nil, backs POST /rebuild.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler, rebuild func() error) chi.Router {
	r := chi.NewRouter()

	r.Get("/search", h.Search)
	r.Get("/listings", h.ListListings)
	r.Get("/listings/{slug}", h.GetListing)
	r.Get("/categories", h.ListCategories)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))
		r.Post("/rebuild", h.Rebuild(rebuild))
	})

	return r
}
