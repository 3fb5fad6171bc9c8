package search

import (
	"sort"
)

// Reconcile computes the visible subset of cards and its display order for
// the given search result set and query state. A nil slug set means no text
// filter is in effect (every card passes the search predicate).
//
// Visibility requires every predicate to hold: category is "all" or present
// in the card's categories, pricing is "all" or equal to the card's tier,
// and the slug is a member of the search result set. Cards are only ever
// filtered and reordered; toggling any selector back to "all" restores the
// exact previous visibility for the same remaining state.
func Reconcile(cards []Card, slugs map[string]struct{}, state QueryState) []Card {
	visible := make([]Card, 0, len(cards))
	for _, card := range cards {
		if !matchesCategory(card, state.Category) {
			continue
		}
		if !matchesPricing(card, state.Pricing) {
			continue
		}
		if slugs != nil {
			if _, ok := slugs[card.Slug]; !ok {
				continue
			}
		}
		visible = append(visible, card)
	}

	sort.SliceStable(visible, func(i, j int) bool {
		return less(&visible[i], &visible[j], state.Sort)
	})
	return visible
}

func matchesCategory(card Card, category string) bool {
	if category == "" || category == FilterAll {
		return true
	}
	for _, c := range card.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func matchesPricing(card Card, pricing string) bool {
	return pricing == "" || pricing == FilterAll || card.Pricing == pricing
}

// less is the total-order comparator behind every sort key. Each branch ends
// in the case-insensitive name ascending tie-break so the order is fully
// deterministic.
func less(a, b *Card, key Sort) bool {
	switch key {
	case SortRating:
		// Descending rating; absent rating sorts last.
		if a.HasRating != b.HasRating {
			return a.HasRating
		}
		if a.HasRating && a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}

	case SortVotes:
		if a.Votes != b.Votes {
			return a.Votes > b.Votes
		}
		// Tie-break on descending rating, absent treated as lowest.
		if a.HasRating != b.HasRating {
			return a.HasRating
		}
		if a.HasRating && a.Rating != b.Rating {
			return a.Rating > b.Rating
		}

	case SortAlphabetical:
		// Fall through to the shared name comparison.

	case SortRecent:
		// Descending lastChecked; the zero time (absent/unparseable) sorts last.
		if !a.LastChecked.Equal(b.LastChecked) {
			return a.LastChecked.After(b.LastChecked)
		}

	default: // SortRank
		// Ascending rank; absent rank sorts last (treated as +infinity).
		if a.HasRank != b.HasRank {
			return a.HasRank
		}
		if a.HasRank && a.Rank != b.Rank {
			return a.Rank < b.Rank
		}
	}

	return a.nameKey() < b.nameKey()
}

// ItemListLD builds a schema.org ItemList mirroring the visible order, with
// 1-based positions.
func ItemListLD(cards []Card, baseURL string) map[string]any {
	items := make([]map[string]any, len(cards))
	for i, card := range cards {
		items[i] = map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"url":      baseURL + "/site/" + card.Slug + "/",
			"name":     card.Name,
		}
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"itemListElement": items,
	}
}
