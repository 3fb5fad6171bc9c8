package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"

	"github.com/morstad/vitrine/internal/apperr"
	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/search"
)

// Directory bundles the immutable state for one catalog generation. A
// rebuild produces a fresh Directory and swaps it in atomically; in-flight
// requests keep working against the generation they started with.
type Directory struct {
	Catalog    *catalog.Catalog
	Controller *search.Controller
}

// Handler holds API route handlers.
type Handler struct {
	dir     atomic.Pointer[Directory]
	baseURL string
}

// NewHandler creates a Handler for the initial directory state.
func NewHandler(dir *Directory, baseURL string) *Handler {
	h := &Handler{baseURL: baseURL}
	h.dir.Store(dir)
	return h
}

// Update swaps in a freshly built directory generation.
func (h *Handler) Update(dir *Directory) {
	h.dir.Store(dir)
}

// cardResponse is the wire form of a visible card.
type cardResponse struct {
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Pricing    string   `json:"pricing"`
	Position   int      `json:"position"`
}

// Search handles GET /api/search. Every parameter is optional; the zero
// state returns all listings in rank order. Query resolution never fails:
// feed or index problems degrade to fewer (or no) results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	dir := h.dir.Load()
	q := r.URL.Query()

	state := search.NewQueryState()
	state.Text = q.Get("q")
	if v := q.Get("category"); v != "" {
		state.Category = v
	}
	if v := q.Get("pricing"); v != "" {
		state.Pricing = v
	}
	state.Sort = search.ParseSort(q.Get("sort"))

	visible := dir.Controller.Resolve(r.Context(), state)

	slugs := make([]string, len(visible))
	cards := make([]cardResponse, len(visible))
	for i, card := range visible {
		slugs[i] = card.Slug
		cards[i] = cardResponse{
			Slug:       card.Slug,
			Name:       card.Name,
			Categories: card.Categories,
			Pricing:    card.Pricing,
			Position:   i + 1,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"slugs":  slugs,
		"cards":  cards,
		"total":  len(visible),
		"ldjson": search.ItemListLD(visible, h.baseURL),
	})
}

// ListListings handles GET /api/listings with an optional category filter.
func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	dir := h.dir.Load()
	category := r.URL.Query().Get("category")

	listings := dir.Catalog.Listings
	if category != "" && category != search.FilterAll {
		listings = dir.Catalog.InCategory(category)
	}
	if listings == nil {
		listings = []catalog.Listing{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"listings": listings,
		"total":    len(listings),
	})
}

// GetListing handles GET /api/listings/{slug}.
func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	dir := h.dir.Load()
	slug := chi.URLParam(r, "slug")
	listing, err := dir.Catalog.Listing(slug)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	dir := h.dir.Load()
	cats := dir.Catalog.Categories
	if cats == nil {
		cats = []catalog.Category{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": cats,
		"total":      len(cats),
	})
}

// Rebuild handles POST /api/rebuild (token-protected when auth is enabled).
func (h *Handler) Rebuild(rebuild func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rebuild == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorBody("rebuild unavailable"))
			return
		}
		if err := rebuild(); err != nil {
			slog.Error("rebuild failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("rebuild failed"))
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "rebuilt"})
	}
}
