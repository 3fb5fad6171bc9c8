package search

// FilterAll is the selector value meaning "no filter".
const FilterAll = "all"

// Sort identifies one of the five supported orderings.
type Sort string

// Sort keys.
const (
	SortRank         Sort = "rank"
	SortRating       Sort = "rating"
	SortVotes        Sort = "votes"
	SortAlphabetical Sort = "alphabetical"
	SortRecent       Sort = "recent"
)

// ParseSort maps a raw selector value to a Sort, defaulting to rank.
func ParseSort(raw string) Sort {
	switch Sort(raw) {
	case SortRating, SortVotes, SortAlphabetical, SortRecent:
		return Sort(raw)
	default:
		return SortRank
	}
}

// QueryState is the single mutable snapshot of every control. Any input
// event replaces exactly one field; recomputation always runs over the whole
// state and is deterministic for a given state and card set.
type QueryState struct {
	Text     string
	Category string
	Pricing  string
	Sort     Sort
}

// NewQueryState returns the initial state: no text, no filters, rank order.
func NewQueryState() QueryState {
	return QueryState{
		Category: FilterAll,
		Pricing:  FilterAll,
		Sort:     SortRank,
	}
}
