// Package site renders the static directory site from the catalog: listing
// pages, category pages, static pages, the search index feed, JSON-LD
// payloads, and sitemaps.
package site

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/storage"
)

//go:embed templates/*.tmpl
var defaultTemplates embed.FS

// staticPages are rendered once per build, without listing context.
var staticPages = []string{"privacy", "dmca", "prohibited-content"}

// Options configures a Builder.
type Options struct {
	BaseURL        string
	SiteName       string
	ListingsPath   string
	CategoriesPath string
	TemplateDir    string // optional override; empty uses embedded templates
	PublicDir      string // optional static assets copied verbatim
	OutDir         string
	Logger         *slog.Logger
}

// Builder renders the site into an output tree.
type Builder struct {
	opts     Options
	out      *storage.FS
	tmpl     *template.Template
	sanitize *bluemonday.Policy
	logger   *slog.Logger
}

// New creates a Builder, parsing templates from the override directory when
// set, otherwise from the embedded defaults.
func New(opts Options) (*Builder, error) {
	out, err := storage.NewFS(opts.OutDir)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	funcs := template.FuncMap{
		"title": titleCase,
	}

	var tmpl *template.Template
	if opts.TemplateDir != "" {
		tmpl, err = template.New("").Funcs(funcs).ParseGlob(filepath.Join(opts.TemplateDir, "*.tmpl"))
	} else {
		tmpl, err = template.New("").Funcs(funcs).ParseFS(defaultTemplates, "templates/*.tmpl")
	}
	if err != nil {
		return nil, fmt.Errorf("site: parse templates: %w", err)
	}

	return &Builder{
		opts:     opts,
		out:      out,
		tmpl:     tmpl,
		sanitize: bluemonday.UGCPolicy(),
		logger:   logger,
	}, nil
}

// OutDir returns the absolute output directory.
func (b *Builder) OutDir() string { return b.out.Root() }

// listingView is the template-facing projection of a listing.
type listingView struct {
	Slug           string
	Name           string
	Website        string
	Tags           []string
	SummaryHTML    template.HTML
	CategoriesJSON string
	PricingTier    string
	Rank           string
	Rating         string
	Votes          int
	LastChecked    string
}

func (b *Builder) view(l catalog.Listing) listingView {
	catsJSON, _ := json.Marshal(nonEmpty(l.Categories))
	v := listingView{
		Slug:           l.Slug,
		Name:           l.Name,
		Website:        l.Website,
		Tags:           l.Tags,
		SummaryHTML:    template.HTML(b.sanitize.Sanitize(l.Summary)),
		CategoriesJSON: string(catsJSON),
		PricingTier:    l.PricingOrUnknown(),
		Votes:          l.Votes,
		LastChecked:    l.LastChecked,
	}
	if l.Rank != nil {
		v.Rank = strconv.Itoa(*l.Rank)
	}
	if l.Rating != nil {
		v.Rating = strconv.FormatFloat(*l.Rating, 'f', -1, 64)
	}
	return v
}

// Build loads the catalog, cleans the output tree, and renders everything.
// The loaded catalog is returned so serve mode can reuse it.
func (b *Builder) Build() (*catalog.Catalog, error) {
	cat, err := catalog.Load(b.opts.ListingsPath, b.opts.CategoriesPath)
	if err != nil {
		return nil, err
	}

	listings := orderListings(cat.Listings)
	lastUpdated := latestCheck(listings)

	if err := b.out.Clean(); err != nil {
		return nil, err
	}
	if b.opts.PublicDir != "" {
		if err := b.out.CopyDir(b.opts.PublicDir, "."); err != nil {
			return nil, err
		}
	}

	views := make([]listingView, len(listings))
	for i, l := range listings {
		views[i] = b.view(l)
	}

	if err := b.render("index.html.tmpl", "index.html", map[string]any{
		"SiteName":    b.opts.SiteName,
		"Categories":  cat.Categories,
		"Listings":    views,
		"LastUpdated": lastUpdated,
		"Canonical":   b.opts.BaseURL + "/",
		"Year":        time.Now().Year(),
	}); err != nil {
		return nil, err
	}

	for _, category := range cat.Categories {
		var catViews []listingView
		for _, l := range listings {
			if contains(l.Categories, category.ID) {
				catViews = append(catViews, b.view(l))
			}
		}
		path := filepath.Join("category", category.ID, "index.html")
		if err := b.render("category.html.tmpl", path, map[string]any{
			"SiteName":    b.opts.SiteName,
			"Category":    category,
			"Listings":    catViews,
			"LastUpdated": lastUpdated,
			"Canonical":   fmt.Sprintf("%s/category/%s/", b.opts.BaseURL, category.ID),
			"Year":        time.Now().Year(),
		}); err != nil {
			return nil, err
		}
	}

	for _, l := range listings {
		ld, err := json.Marshal(ListingLD(l, b.opts.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("site: marshal ldjson for %s: %w", l.Slug, err)
		}
		path := filepath.Join("site", l.Slug, "index.html")
		if err := b.render("site.html.tmpl", path, map[string]any{
			"SiteName":        b.opts.SiteName,
			"Listing":         l,
			"SummaryHTML":     template.HTML(b.sanitize.Sanitize(l.Summary)),
			"MetaDescription": metaDescription(l.Summary),
			"PrimaryCategory": primaryCategory(l),
			"Alternatives":    alternatives(listings, l),
			"LDJSON":          template.JS(ld),
			"Canonical":       fmt.Sprintf("%s/site/%s/", b.opts.BaseURL, l.Slug),
			"Year":            time.Now().Year(),
		}); err != nil {
			return nil, err
		}
	}

	for _, page := range staticPages {
		if err := b.render(page+".html.tmpl", page+".html", map[string]any{
			"SiteName":  b.opts.SiteName,
			"Canonical": fmt.Sprintf("%s/%s.html", b.opts.BaseURL, page),
			"Year":      time.Now().Year(),
		}); err != nil {
			return nil, err
		}
	}

	feed, err := json.MarshalIndent(cat.SearchDocs(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("site: marshal search index: %w", err)
	}
	if err := b.out.Write("search-index.json", append(feed, '\n')); err != nil {
		return nil, err
	}

	b.logger.Info("builder: build complete",
		slog.Int("listings", len(listings)),
		slog.Int("categories", len(cat.Categories)))
	return cat, nil
}

func (b *Builder) render(name, outPath string, data map[string]any) error {
	var buf strings.Builder
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("site: render %s: %w", name, err)
	}
	return b.out.Write(outPath, []byte(buf.String()))
}

// orderListings returns a copy sorted by rank ascending (ranked entries
// first), then case-insensitive name. This is the build-time default order.
func orderListings(listings []catalog.Listing) []catalog.Listing {
	out := append([]catalog.Listing(nil), listings...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Rank != nil && b.Rank != nil && *a.Rank != *b.Rank:
			return *a.Rank < *b.Rank
		case (a.Rank != nil) != (b.Rank != nil):
			return a.Rank != nil
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	})
	return out
}

// latestCheck returns the most recent lastChecked date as YYYY-MM-DD, or "".
func latestCheck(listings []catalog.Listing) string {
	var latest time.Time
	for _, l := range listings {
		if t := l.LastCheckedTime(); t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return ""
	}
	return latest.Format("2006-01-02")
}

// alternatives picks up to three other listings sharing a category.
func alternatives(listings []catalog.Listing, subject catalog.Listing) []catalog.Listing {
	var out []catalog.Listing
	for _, candidate := range listings {
		if candidate.Slug == subject.Slug {
			continue
		}
		if sharesCategory(candidate.Categories, subject.Categories) {
			out = append(out, candidate)
			if len(out) == 3 {
				break
			}
		}
	}
	return out
}

func sharesCategory(a, b []string) bool {
	for _, x := range a {
		if contains(b, x) {
			return true
		}
	}
	return false
}

func primaryCategory(l catalog.Listing) string {
	if len(l.Categories) > 0 {
		return l.Categories[0]
	}
	return "unknown"
}

// metaDescription truncates a summary to a description-safe length at a word
// boundary.
func metaDescription(summary string) string {
	const maxLen = 160
	if len(summary) <= maxLen {
		return summary
	}
	cut := summary[:maxLen]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "…"
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func nonEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
