package site

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"time"

	"github.com/morstad/vitrine/internal/catalog"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

	// Above maxSitemapURLs the set is split into parts under an index, each
	// kept below the protocol limit with headroom.
	maxSitemapURLs  = 50000
	sitemapPartSize = 49000
)

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapRef struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	NS       string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

// SitemapURLs collects every page URL: the root, the static pages, each
// listing page, and each referenced category page (deduplicated).
func SitemapURLs(cat *catalog.Catalog, baseURL string) []string {
	urls := []string{baseURL + "/"}
	for _, page := range staticPages {
		urls = append(urls, fmt.Sprintf("%s/%s.html", baseURL, page))
	}
	for _, l := range cat.Listings {
		urls = append(urls, fmt.Sprintf("%s/site/%s/", baseURL, l.Slug))
	}

	seen := make(map[string]struct{})
	for _, l := range cat.Listings {
		for _, c := range l.Categories {
			u := fmt.Sprintf("%s/category/%s/", baseURL, c)
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

// WriteSitemap emits sitemap.xml into the output tree, splitting into
// numbered parts plus sitemap-index.xml when the URL set exceeds the
// protocol limit.
func (b *Builder) WriteSitemap(cat *catalog.Catalog) error {
	urls := SitemapURLs(cat, b.opts.BaseURL)
	today := time.Now().Format("2006-01-02")

	if len(urls) <= maxSitemapURLs {
		if err := b.writeURLSet("sitemap.xml", urls, today); err != nil {
			return err
		}
		b.logger.Info("builder: sitemap written", slog.Int("urls", len(urls)))
		return nil
	}

	var idx sitemapIndex
	idx.NS = sitemapNS
	for part := 0; len(urls) > 0; part++ {
		n := sitemapPartSize
		if n > len(urls) {
			n = len(urls)
		}
		name := fmt.Sprintf("sitemap-%d.xml", part+1)
		if err := b.writeURLSet(name, urls[:n], today); err != nil {
			return err
		}
		idx.Sitemaps = append(idx.Sitemaps, sitemapRef{
			Loc:     fmt.Sprintf("%s/%s", b.opts.BaseURL, name),
			LastMod: today,
		})
		urls = urls[n:]
	}

	data, err := xml.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("site: marshal sitemap index: %w", err)
	}
	if err := b.out.Write("sitemap-index.xml", append([]byte(xml.Header), append(data, '\n')...)); err != nil {
		return err
	}
	b.logger.Info("builder: sitemap index written", slog.Int("parts", len(idx.Sitemaps)))
	return nil
}

func (b *Builder) writeURLSet(name string, urls []string, lastMod string) error {
	set := urlSet{NS: sitemapNS}
	for _, u := range urls {
		set.URLs = append(set.URLs, sitemapURL{Loc: u, LastMod: lastMod})
	}
	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("site: marshal sitemap: %w", err)
	}
	return b.out.Write(name, append([]byte(xml.Header), append(data, '\n')...))
}
