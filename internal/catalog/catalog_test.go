package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/morstad/vitrine/internal/apperr"
)

func writeFixture(t *testing.T, sites, categories string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	listingsPath := filepath.Join(dir, "sites.json")
	categoriesPath := filepath.Join(dir, "categories.json")
	if err := os.WriteFile(listingsPath, []byte(sites), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(categoriesPath, []byte(categories), 0o644); err != nil {
		t.Fatal(err)
	}
	return listingsPath, categoriesPath
}

const sitesJSON = `{
  "sites": [
    {
      "id": "1",
      "slug": "alpha-tool",
      "name": "Alpha Tool",
      "summary": "Generates images.",
      "website": "https://alpha.example.com",
      "categories": ["images"],
      "tags": ["generator"],
      "pricing": "free",
      "rank": 1,
      "rating": 4.5,
      "votes": 10,
      "lastChecked": "2026-08-01"
    },
    {
      "id": "2",
      "slug": "beta-tool",
      "name": "Beta Tool",
      "summary": "Chats.",
      "website": "https://beta.example.com",
      "categories": ["chat", "images"]
    }
  ]
}`

const categoriesJSON = `[
  {"id": "images", "name": "Image Tools"},
  {"id": "chat", "name": "Chat Tools"}
]`

func TestLoad(t *testing.T) {
	listings, cats := writeFixture(t, sitesJSON, categoriesJSON)

	c, err := Load(listings, cats)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Listings) != 2 {
		t.Fatalf("listings = %d, want 2", len(c.Listings))
	}
	if len(c.Categories) != 2 {
		t.Fatalf("categories = %d, want 2", len(c.Categories))
	}

	alpha := c.ListingBySlug("alpha-tool")
	if alpha == nil {
		t.Fatal("alpha-tool not found")
	}
	if alpha.Rank == nil || *alpha.Rank != 1 {
		t.Errorf("rank = %v, want 1", alpha.Rank)
	}
	if alpha.Rating == nil || *alpha.Rating != 4.5 {
		t.Errorf("rating = %v, want 4.5", alpha.Rating)
	}

	beta := c.ListingBySlug("beta-tool")
	if beta == nil {
		t.Fatal("beta-tool not found")
	}
	if beta.Rank != nil {
		t.Errorf("beta rank = %v, want nil", beta.Rank)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/sites.json", "/nonexistent/categories.json"); err == nil {
		t.Fatal("expected error for missing files")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	listings, cats := writeFixture(t, `{"sites": [`, categoriesJSON)
	if _, err := Load(listings, cats); err == nil {
		t.Fatal("expected error for malformed listings")
	}
}

func TestPricingOrUnknown(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"free", "free"},
		{"freemium", "freemium"},
		{"paid", "paid"},
		{"", "unknown"},
		{"enterprise", "unknown"},
	}
	for _, tc := range cases {
		l := Listing{Pricing: tc.in}
		if got := l.PricingOrUnknown(); got != tc.want {
			t.Errorf("PricingOrUnknown(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLastCheckedTime(t *testing.T) {
	l := Listing{LastChecked: "2026-08-01"}
	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if got := l.LastCheckedTime(); !got.Equal(want) {
		t.Errorf("LastCheckedTime = %v, want %v", got, want)
	}

	l = Listing{LastChecked: "not-a-date"}
	if got := l.LastCheckedTime(); !got.IsZero() {
		t.Errorf("malformed date should yield zero time, got %v", got)
	}

	l = Listing{}
	if got := l.LastCheckedTime(); !got.IsZero() {
		t.Errorf("absent date should yield zero time, got %v", got)
	}
}

func TestListingNotFoundSentinel(t *testing.T) {
	listings, cats := writeFixture(t, sitesJSON, categoriesJSON)
	c, err := Load(listings, cats)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Listing("alpha-tool"); err != nil {
		t.Fatalf("Listing: %v", err)
	}
	_, err = c.Listing("ghost")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want apperr.ErrNotFound", err)
	}
}

func TestInCategory(t *testing.T) {
	listings, cats := writeFixture(t, sitesJSON, categoriesJSON)
	c, err := Load(listings, cats)
	if err != nil {
		t.Fatal(err)
	}

	images := c.InCategory("images")
	if len(images) != 2 {
		t.Fatalf("images = %d, want 2", len(images))
	}
	chat := c.InCategory("chat")
	if len(chat) != 1 || chat[0].Slug != "beta-tool" {
		t.Fatalf("chat = %v", chat)
	}
	if got := c.InCategory("nope"); got != nil {
		t.Fatalf("unknown category = %v, want nil", got)
	}
}

func TestSearchDocs(t *testing.T) {
	listings, cats := writeFixture(t, sitesJSON, categoriesJSON)
	c, err := Load(listings, cats)
	if err != nil {
		t.Fatal(err)
	}

	docs := c.SearchDocs()
	if len(docs) != 2 {
		t.Fatalf("docs = %d, want 2", len(docs))
	}
	if docs[0].Slug != "alpha-tool" {
		t.Errorf("docs[0].Slug = %q", docs[0].Slug)
	}
	if docs[0].Description != "Generates images." {
		t.Errorf("description = %q", docs[0].Description)
	}
	// Nil slices are normalised so the feed JSON never contains null.
	if docs[1].Tags == nil {
		t.Error("tags should be empty slice, not nil")
	}
}
