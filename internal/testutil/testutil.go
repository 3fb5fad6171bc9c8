// Package testutil provides shared test helpers for catalog fixtures and
// databases.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/index"
)

// TestDB creates a temporary SQLite index that is automatically cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "vitrine-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// IntPtr returns a pointer to n, for optional rank fields.
func IntPtr(n int) *int { return &n }

// FloatPtr returns a pointer to f, for optional rating fields.
func FloatPtr(f float64) *float64 { return &f }

// SampleCategories is a small category set shared by fixtures.
func SampleCategories() []catalog.Category {
	return []catalog.Category{
		{ID: "images", Name: "Image Tools"},
		{ID: "chat", Name: "Chat Tools"},
		{ID: "video", Name: "Video Tools"},
	}
}

// SampleListings is a small listing set with ranked, unranked, rated, and
// unrated entries so ordering paths are all exercised.
func SampleListings() []catalog.Listing {
	return []catalog.Listing{
		{
			ID:          "1",
			Slug:        "alpha-studio",
			Name:        "Alpha Studio",
			Summary:     "Alpha Studio generates images from prompts with fine grained style controls and a large model zoo that covers photorealistic and illustrated output equally well.",
			Website:     "https://alpha.example.com",
			Categories:  []string{"images"},
			Tags:        []string{"generator"},
			Pricing:     catalog.PricingFreemium,
			Rank:        IntPtr(2),
			Rating:      FloatPtr(4.5),
			Votes:       120,
			LastChecked: "2026-08-01",
		},
		{
			ID:          "2",
			Slug:        "beta-chat",
			Name:        "Beta Chat",
			Summary:     "Beta Chat is a conversational companion with persistent memory, multiple personas, and an API that makes it easy to embed the experience anywhere you need it.",
			Website:     "https://beta.example.com",
			Categories:  []string{"chat"},
			Tags:        []string{"companion", "api"},
			Pricing:     catalog.PricingPaid,
			Rank:        IntPtr(1),
			Rating:      FloatPtr(4.1),
			Votes:       300,
			LastChecked: "2026-07-15",
		},
		{
			ID:         "3",
			Slug:       "gamma-video",
			Name:       "Gamma Video",
			Summary:    "Gamma Video turns scripts into short clips with synthetic narration and automatic scene selection, aimed at creators who publish daily and need speed over polish.",
			Website:    "https://gamma.example.com",
			Categories: []string{"video", "images"},
			Tags:       []string{"generator", "clips"},
			Pricing:    catalog.PricingFree,
			Votes:      45,
		},
	}
}

// TestCatalog returns an in-memory catalog fixture.
func TestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	return &catalog.Catalog{
		Listings:   SampleListings(),
		Categories: SampleCategories(),
	}
}

// WriteCatalogFiles writes sites.json and categories.json for the fixture
// into a temp directory and returns both paths.
func WriteCatalogFiles(t *testing.T, listings []catalog.Listing, categories []catalog.Category) (string, string) {
	t.Helper()
	dir := t.TempDir()

	sites, err := json.MarshalIndent(map[string]any{"sites": listings}, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	listingsPath := filepath.Join(dir, "sites.json")
	if err := os.WriteFile(listingsPath, sites, 0o644); err != nil {
		t.Fatal(err)
	}

	cats, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		t.Fatal(err)
	}
	categoriesPath := filepath.Join(dir, "categories.json")
	if err := os.WriteFile(categoriesPath, cats, 0o644); err != nil {
		t.Fatal(err)
	}

	return listingsPath, categoriesPath
}
