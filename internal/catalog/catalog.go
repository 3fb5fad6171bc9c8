// Package catalog defines the directory data model and loads it from the
// JSON data files that are the single source of truth for the site.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/morstad/vitrine/internal/apperr"
)

// Pricing tiers.
const (
	PricingFree     = "free"
	PricingFreemium = "freemium"
	PricingPaid     = "paid"
	PricingUnknown  = "unknown"
)

// Social holds optional profile links for a listing.
type Social struct {
	Twitter string `json:"twitter,omitempty"`
	Discord string `json:"discord,omitempty"`
}

// Listing is one directory entry. Immutable once loaded.
type Listing struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Summary     string   `json:"summary"`
	Website     string   `json:"website"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	Pricing     string   `json:"pricing,omitempty"`
	Rank        *int     `json:"rank,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Votes       int      `json:"votes,omitempty"`
	LastChecked string   `json:"lastChecked,omitempty"`
	Languages   []string `json:"languages,omitempty"`
	Social      *Social  `json:"social,omitempty"`
}

// PricingOrUnknown returns the listing's pricing tier, defaulting to "unknown".
func (l *Listing) PricingOrUnknown() string {
	switch l.Pricing {
	case PricingFree, PricingFreemium, PricingPaid:
		return l.Pricing
	default:
		return PricingUnknown
	}
}

// LastCheckedTime parses lastChecked, returning the zero time when the field
// is absent or unparseable.
func (l *Listing) LastCheckedTime() time.Time {
	if l.LastChecked == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, l.LastChecked); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Category is a directory section.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Catalog is the fully loaded data set.
type Catalog struct {
	Listings   []Listing
	Categories []Category
}

// CategoryByID returns the category with the given id, or nil.
func (c *Catalog) CategoryByID(id string) *Category {
	for i := range c.Categories {
		if c.Categories[i].ID == id {
			return &c.Categories[i]
		}
	}
	return nil
}

// ListingBySlug returns the listing with the given slug, or nil.
func (c *Catalog) ListingBySlug(slug string) *Listing {
	for i := range c.Listings {
		if c.Listings[i].Slug == slug {
			return &c.Listings[i]
		}
	}
	return nil
}

// Listing returns the listing with the given slug, or apperr.ErrNotFound.
func (c *Catalog) Listing(slug string) (*Listing, error) {
	if l := c.ListingBySlug(slug); l != nil {
		return l, nil
	}
	return nil, fmt.Errorf("catalog: listing %s: %w", slug, apperr.ErrNotFound)
}

// InCategory returns all listings belonging to the category, in input order.
func (c *Catalog) InCategory(id string) []Listing {
	var out []Listing
	for _, l := range c.Listings {
		for _, cat := range l.Categories {
			if cat == id {
				out = append(out, l)
				break
			}
		}
	}
	return out
}

// listingsFile mirrors the top-level shape of sites.json.
type listingsFile struct {
	Sites []Listing `json:"sites"`
}

// Load reads and decodes the two data files.
func Load(listingsPath, categoriesPath string) (*Catalog, error) {
	rawListings, err := os.ReadFile(listingsPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: read listings: %w", err)
	}
	var lf listingsFile
	if err := json.Unmarshal(rawListings, &lf); err != nil {
		return nil, fmt.Errorf("catalog: parse listings: %w", err)
	}

	rawCategories, err := os.ReadFile(categoriesPath)
	if err != nil {
		return nil, fmt.Errorf("catalog: read categories: %w", err)
	}
	var cats []Category
	if err := json.Unmarshal(rawCategories, &cats); err != nil {
		return nil, fmt.Errorf("catalog: parse categories: %w", err)
	}

	return &Catalog{Listings: lf.Sites, Categories: cats}, nil
}

// SearchDoc is the projection fed to the search index and written to
// search-index.json.
type SearchDoc struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Categories  []string `json:"categories"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	Website     string   `json:"website"`
}

// SearchDocs projects every listing into its indexable form.
func (c *Catalog) SearchDocs() []SearchDoc {
	docs := make([]SearchDoc, len(c.Listings))
	for i, l := range c.Listings {
		docs[i] = SearchDoc{
			Slug:        l.Slug,
			Name:        l.Name,
			Categories:  nonNil(l.Categories),
			Tags:        nonNil(l.Tags),
			Description: l.Summary,
			Website:     l.Website,
		}
	}
	return docs
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
