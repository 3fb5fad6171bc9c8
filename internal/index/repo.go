package index

import (
	"fmt"
	"strings"

	"github.com/morstad/vitrine/internal/catalog"
)

// Upsert inserts or replaces one document and its FTS entry.
func (db *DB) Upsert(doc catalog.SearchDoc) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	cats := strings.Join(doc.Categories, " ")
	tags := strings.Join(doc.Tags, " ")

	_, err = tx.Exec(`
		INSERT INTO listings (slug, name, summary, website, categories, tags)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			name       = excluded.name,
			summary    = excluded.summary,
			website    = excluded.website,
			categories = excluded.categories,
			tags       = excluded.tags
	`, doc.Slug, doc.Name, doc.Description, doc.Website, cats, tags)
	if err != nil {
		return fmt.Errorf("index: upsert listing: %w", err)
	}

	if err := ftsUpsert(tx, doc, cats, tags); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceAll clears the index and ingests the full document set.
func (db *DB) ReplaceAll(docs []catalog.SearchDoc) error {
	if _, err := db.conn.Exec(`DELETE FROM listings`); err != nil {
		return fmt.Errorf("index: clear: %w", err)
	}
	if err := ftsClear(db.conn); err != nil {
		return err
	}
	for _, doc := range docs {
		if err := db.Upsert(doc); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a document and its FTS entry.
func (db *DB) Delete(slug string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, slug)
	_, _ = tx.Exec(`DELETE FROM listings WHERE slug = ?`, slug)

	return tx.Commit()
}

// AllSlugs returns every indexed slug in insertion order.
func (db *DB) AllSlugs() ([]string, error) {
	rows, err := db.conn.Query(`SELECT slug FROM listings ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("index: all slugs: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Count returns the number of indexed documents.
func (db *DB) Count() (int, error) {
	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM listings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("index: count: %w", err)
	}
	return n, nil
}
