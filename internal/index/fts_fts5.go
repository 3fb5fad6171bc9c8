//go:build sqlite_fts5

package index

import (
	"database/sql"
	"fmt"

	"github.com/morstad/vitrine/internal/catalog"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS listings_fts USING fts5(
			slug UNINDEXED,
			name,
			categories,
			tags,
			summary,
			website,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, doc catalog.SearchDoc, cats, tags string) error {
	_, _ = tx.Exec(`DELETE FROM listings_fts WHERE slug = ?`, doc.Slug)
	_, err := tx.Exec(`INSERT INTO listings_fts (slug, name, categories, tags, summary, website) VALUES (?, ?, ?, ?, ?, ?)`,
		doc.Slug, doc.Name, cats, tags, doc.Description, doc.Website)
	if err != nil {
		return fmt.Errorf("index: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, slug string) {
	_, _ = tx.Exec(`DELETE FROM listings_fts WHERE slug = ?`, slug)
}

func ftsClear(conn *sql.DB) error {
	if _, err := conn.Exec(`DELETE FROM listings_fts`); err != nil {
		return fmt.Errorf("index: clear fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search across every indexed field and
// returns matching slugs, best rank first, deduplicated by slug.
func (db *DB) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.Query(`
		SELECT slug
		FROM listings_fts
		WHERE listings_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	var out []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		out = append(out, slug)
	}
	return out, rows.Err()
}
