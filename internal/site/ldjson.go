package site

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/morstad/vitrine/internal/catalog"
)

// ListingLD builds the schema.org WebSite payload for one listing, embedded
// inline on listing pages and emitted standalone by the ldjson command.
func ListingLD(l catalog.Listing, baseURL string) map[string]any {
	sameAs := []string{}
	if l.Website != "" {
		sameAs = append(sameAs, l.Website)
	}
	if l.Social != nil {
		if l.Social.Twitter != "" {
			sameAs = append(sameAs, l.Social.Twitter)
		}
		if l.Social.Discord != "" {
			sameAs = append(sameAs, l.Social.Discord)
		}
	}

	language := "en"
	if len(l.Languages) > 0 {
		language = l.Languages[0]
	}

	return map[string]any{
		"@context":         "https://schema.org",
		"@type":            "WebSite",
		"name":             l.Name,
		"url":              l.Website,
		"description":      l.Summary,
		"inLanguage":       language,
		"mainEntityOfPage": fmt.Sprintf("%s/site/%s/", baseURL, l.Slug),
		"sameAs":           sameAs,
	}
}

// WriteLDJSON emits one JSON-LD payload per listing under ldjson/ in the
// output tree.
func (b *Builder) WriteLDJSON(cat *catalog.Catalog) error {
	for _, l := range cat.Listings {
		payload, err := json.MarshalIndent(ListingLD(l, b.opts.BaseURL), "", "  ")
		if err != nil {
			return fmt.Errorf("site: marshal ldjson for %s: %w", l.Slug, err)
		}
		path := filepath.Join("ldjson", l.Slug+".json")
		if err := b.out.Write(path, append(payload, '\n')); err != nil {
			return err
		}
	}
	b.logger.Info("builder: ldjson payloads written", slog.Int("count", len(cat.Listings)))
	return nil
}
