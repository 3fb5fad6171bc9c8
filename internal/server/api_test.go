package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/morstad/vitrine/internal/search"
	"github.com/morstad/vitrine/internal/testutil"
)

type searchResponse struct {
	Slugs []string `json:"slugs"`
	Cards []struct {
		Slug     string `json:"slug"`
		Position int    `json:"position"`
	} `json:"cards"`
	Total  int            `json:"total"`
	LDJSON map[string]any `json:"ldjson"`
}

func testEnv(t *testing.T, authToken string, rebuild func() error) http.Handler {
	t.Helper()

	cat := testutil.TestCatalog(t)
	engine := search.NewEngine(search.DocsSource(cat.SearchDocs()), slog.Default())
	t.Cleanup(func() { engine.Close() })

	dir := &Directory{
		Catalog:    cat,
		Controller: search.NewController(engine, search.CardsFromCatalog(cat)),
	}
	h := NewHandler(dir, "https://example.com")
	return NewRouter(h, authToken != "", authToken, nil, rebuild)
}

func doGET(t *testing.T, router http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchDefaultState(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/search")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// Rank order: beta-chat (1), alpha-studio (2), unranked gamma-video.
	want := []string{"beta-chat", "alpha-studio", "gamma-video"}
	if len(resp.Slugs) != 3 {
		t.Fatalf("slugs = %v", resp.Slugs)
	}
	for i := range want {
		if resp.Slugs[i] != want[i] {
			t.Fatalf("slugs = %v, want %v", resp.Slugs, want)
		}
	}
	if resp.Cards[0].Position != 1 || resp.Cards[2].Position != 3 {
		t.Errorf("positions not 1-based: %+v", resp.Cards)
	}
	if resp.LDJSON["@type"] != "ItemList" {
		t.Errorf("ldjson @type = %v", resp.LDJSON["@type"])
	}
}

func TestSearchQueryNarrows(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/search?q=alpha")
	var resp searchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Slugs[0] != "alpha-studio" {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestSearchFilters(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/search?category=images&pricing=freemium")
	var resp searchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Slugs[0] != "alpha-studio" {
		t.Fatalf("resp = %+v", resp)
	}

	// Unknown sort values fall back to rank; never an error.
	w = doGET(t, router, "/search?sort=bogus")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestSearchSortOrder(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/search?sort=votes")
	var resp searchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	// Votes: beta-chat 300, alpha-studio 120, gamma-video 45.
	want := []string{"beta-chat", "alpha-studio", "gamma-video"}
	for i := range want {
		if resp.Slugs[i] != want[i] {
			t.Fatalf("slugs = %v, want %v", resp.Slugs, want)
		}
	}

	w = doGET(t, router, "/search?sort=alphabetical")
	resp = searchResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	want = []string{"alpha-studio", "beta-chat", "gamma-video"}
	for i := range want {
		if resp.Slugs[i] != want[i] {
			t.Fatalf("alphabetical = %v, want %v", resp.Slugs, want)
		}
	}
}

func TestListListings(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/listings")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Total int `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}

	w = doGET(t, router, "/listings?category=chat")
	resp.Total = 0
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Fatalf("filtered total = %d, want 1", resp.Total)
	}
}

func TestGetListing(t *testing.T) {
	router := testEnv(t, "", nil)

	w := doGET(t, router, "/listings/alpha-studio")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var listing struct {
		Slug string `json:"slug"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &listing)
	if listing.Slug != "alpha-studio" {
		t.Errorf("slug = %q", listing.Slug)
	}

	w = doGET(t, router, "/listings/no-such-slug")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing listing status = %d, want 404", w.Code)
	}
}

func TestListCategories(t *testing.T) {
	router := testEnv(t, "", nil)
	w := doGET(t, router, "/categories")
	var resp struct {
		Total int `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 3 {
		t.Fatalf("total = %d, want 3", resp.Total)
	}
}

func TestRebuildAuth(t *testing.T) {
	called := 0
	router := testEnv(t, "secret", func() error {
		called++
		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("valid token status = %d, want 202", w.Code)
	}
	if called != 1 {
		t.Fatalf("rebuild called %d times", called)
	}
}

func TestRebuildFailure(t *testing.T) {
	router := testEnv(t, "", func() error { return errors.New("disk full") })

	req := httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestRebuildUnavailable(t *testing.T) {
	router := testEnv(t, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/rebuild", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestUpdateSwapsGeneration(t *testing.T) {
	cat := testutil.TestCatalog(t)
	engine := search.NewEngine(search.DocsSource(cat.SearchDocs()), slog.Default())
	defer engine.Close()
	h := NewHandler(&Directory{
		Catalog:    cat,
		Controller: search.NewController(engine, search.CardsFromCatalog(cat)),
	}, "https://example.com")
	router := NewRouter(h, false, "", nil, nil)

	// Shrink the catalog and swap.
	smaller := testutil.TestCatalog(t)
	smaller.Listings = smaller.Listings[:1]
	engine2 := search.NewEngine(search.DocsSource(smaller.SearchDocs()), slog.Default())
	defer engine2.Close()
	h.Update(&Directory{
		Catalog:    smaller,
		Controller: search.NewController(engine2, search.CardsFromCatalog(smaller)),
	})

	w := doGET(t, router, "/listings")
	var resp struct {
		Total int `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Fatalf("total after swap = %d, want 1", resp.Total)
	}
}
