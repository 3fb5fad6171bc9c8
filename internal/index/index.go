package index

import "github.com/morstad/vitrine/internal/catalog"

// ListingIndex defines the interface for listing index operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ListingIndex interface {
	Upsert(doc catalog.SearchDoc) error
	ReplaceAll(docs []catalog.SearchDoc) error
	Delete(slug string) error
	Search(query string, limit int) ([]string, error)
	AllSlugs() ([]string, error)
	Count() (int, error)
	Close() error
}

// Verify *DB satisfies ListingIndex at compile time.
var _ ListingIndex = (*DB)(nil)
