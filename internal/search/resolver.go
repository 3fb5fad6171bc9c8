package search

import (
	"context"
	"strings"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/index"
)

// Resolver answers a non-blank text query with matching slugs. Two variants
// exist: the index-backed resolver and the linear-scan fallback. The variant
// is selected once, when the engine is built.
type Resolver interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// ftsResolver delegates to the SQLite index.
type ftsResolver struct {
	db *index.DB
}

func (r ftsResolver) Search(_ context.Context, query string) ([]string, error) {
	return r.db.Search(query, 0)
}

// scanResolver is the degraded path: a case-insensitive substring match over
// every searchable field. A document matches when ANY field contains the
// query.
type scanResolver struct {
	docs []catalog.SearchDoc
}

func (r scanResolver) Search(_ context.Context, query string) ([]string, error) {
	needle := strings.ToLower(query)
	var out []string
	for _, doc := range r.docs {
		if docMatches(doc, needle) {
			out = append(out, doc.Slug)
		}
	}
	return out, nil
}

func docMatches(doc catalog.SearchDoc, needle string) bool {
	if strings.Contains(strings.ToLower(doc.Name), needle) ||
		strings.Contains(strings.ToLower(doc.Description), needle) ||
		strings.Contains(strings.ToLower(doc.Website), needle) {
		return true
	}
	for _, c := range doc.Categories {
		if strings.Contains(strings.ToLower(c), needle) {
			return true
		}
	}
	for _, t := range doc.Tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
