//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/morstad/vitrine/internal/catalog"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not compiled in; search uses LIKE over the listings table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ catalog.SearchDoc, _, _ string) error {
	// All fields already live in the listings table; nothing extra to do.
	return nil
}

func ftsDelete(_ *sql.Tx, _ string) {}

func ftsClear(_ *sql.DB) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT slug
		FROM listings
		WHERE name LIKE ? OR summary LIKE ? OR categories LIKE ? OR tags LIKE ? OR website LIKE ?
		ORDER BY rowid
		LIMIT ?
	`, like, like, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		out = append(out, slug)
	}
	return out, rows.Err()
}
