package search

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/morstad/vitrine/internal/catalog"
)

// Card is the presentation-side projection of a listing. Identity fields are
// never mutated after creation; only visibility and order are decided per
// recomputation. Optional numeric fields carry an explicit presence flag so
// that "absent" gets deterministic, last-place sort behaviour instead of a
// magic in-band value.
type Card struct {
	Slug       string
	Name       string
	Heading    string
	Categories []string
	Pricing    string

	Rank    int
	HasRank bool

	Rating    float64
	HasRating bool

	Votes int

	LastChecked time.Time
}

// nameKey returns the case-folded comparison key: the stored name when
// present, otherwise the heading text. Display text is never altered.
func (c *Card) nameKey() string {
	if c.Name != "" {
		return strings.ToLower(c.Name)
	}
	return strings.ToLower(c.Heading)
}

// ParseCard decodes a card from string-encoded attributes, as rendered onto
// listing elements. Every field is parsed defensively: malformed numbers and
// dates fall back to the documented sentinel defaults and never raise.
//
// Recognised keys: slug, name, heading, categories (JSON array), pricing,
// rank, rating, votes, last-checked.
func ParseCard(attrs map[string]string) Card {
	card := Card{
		Slug:    attrs["slug"],
		Name:    attrs["name"],
		Heading: attrs["heading"],
		Pricing: attrs["pricing"],
	}
	if card.Pricing == "" {
		card.Pricing = catalog.PricingUnknown
	}

	if raw := attrs["categories"]; raw != "" {
		var cats []string
		if err := json.Unmarshal([]byte(raw), &cats); err == nil {
			card.Categories = cats
		}
	}

	if raw := attrs["rank"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			card.Rank = n
			card.HasRank = true
		}
	}
	if raw := attrs["rating"]; raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			card.Rating = f
			card.HasRating = true
		}
	}
	if raw := attrs["votes"]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			card.Votes = n
		}
	}
	if raw := attrs["last-checked"]; raw != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				card.LastChecked = t
				break
			}
		}
	}

	return card
}

// CardsFromCatalog projects every listing into a card, decoded once at load
// rather than re-parsed per filter pass.
func CardsFromCatalog(c *catalog.Catalog) []Card {
	cards := make([]Card, len(c.Listings))
	for i, l := range c.Listings {
		card := Card{
			Slug:        l.Slug,
			Name:        l.Name,
			Categories:  append([]string(nil), l.Categories...),
			Pricing:     l.PricingOrUnknown(),
			Votes:       l.Votes,
			LastChecked: l.LastCheckedTime(),
		}
		if l.Rank != nil {
			card.Rank = *l.Rank
			card.HasRank = true
		}
		if l.Rating != nil {
			card.Rating = *l.Rating
			card.HasRating = true
		}
		cards[i] = card
	}
	return cards
}
