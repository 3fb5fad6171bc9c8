// Package audit crawls a deployed site and reports SEO and content-quality
// problems: error statuses, missing canonicals and descriptions, duplicate
// titles, and thin pages.
package audit

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	defaultMaxPages = 500
	defaultMinWords = 200
)

// Issue is one per-page problem.
type Issue struct {
	URL     string
	Problem string
}

// Duplicate records a page whose title or description was already seen.
type Duplicate struct {
	URL   string
	Of    string
	Field string
}

// ThinPage records a page below the word-count floor.
type ThinPage struct {
	URL   string
	Words int
}

// Report aggregates everything a crawl found.
type Report struct {
	Errors     []Issue
	Duplicates []Duplicate
	Thin       []ThinPage
	Pages      int
}

// Crawler walks a site breadth-first, staying on the start host.
type Crawler struct {
	base     *url.URL
	client   *http.Client
	maxPages int
	minWords int
	logger   *slog.Logger
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(cr *Crawler) { cr.client = c }
}

// WithMaxPages bounds the crawl.
func WithMaxPages(n int) Option {
	return func(cr *Crawler) { cr.maxPages = n }
}

// WithMinWords sets the thin-page floor.
func WithMinWords(n int) Option {
	return func(cr *Crawler) { cr.minWords = n }
}

// New creates a Crawler rooted at baseURL.
func New(baseURL string, logger *slog.Logger, opts ...Option) (*Crawler, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("audit: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("audit: base url must be absolute: %s", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Crawler{
		base:     base,
		client:   &http.Client{Timeout: 15 * time.Second},
		maxPages: defaultMaxPages,
		minWords: defaultMinWords,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run crawls from the site root until the queue empties, the page budget is
// spent, or ctx is cancelled.
func (c *Crawler) Run(ctx context.Context) (*Report, error) {
	rep := &Report{}
	titles := make(map[string]string)
	descs := make(map[string]string)
	seen := make(map[string]struct{})

	queue := []string{c.base.String() + "/"}
	for len(queue) > 0 && len(seen) < c.maxPages {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		pageURL := queue[0]
		queue = queue[1:]
		if _, done := seen[pageURL]; done {
			continue
		}
		seen[pageURL] = struct{}{}

		status, body, err := c.fetch(ctx, pageURL)
		if err != nil {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: "fetch: " + err.Error()})
			continue
		}
		rep.Pages++
		if status >= 400 {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: fmt.Sprintf("status %d", status)})
			continue
		}

		page, err := parsePage(body)
		if err != nil {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: "parse: " + err.Error()})
			continue
		}

		if page.h1Count != 1 {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: fmt.Sprintf("H1=%d", page.h1Count)})
		}
		if page.canonical == "" {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: "no-canonical"})
		}
		if page.description == "" {
			rep.Errors = append(rep.Errors, Issue{URL: pageURL, Problem: "no-description"})
		}

		if page.title != "" {
			if first, dup := titles[page.title]; dup {
				rep.Duplicates = append(rep.Duplicates, Duplicate{URL: pageURL, Of: first, Field: "title"})
			} else {
				titles[page.title] = pageURL
			}
		}
		if page.description != "" {
			if first, dup := descs[page.description]; dup {
				rep.Duplicates = append(rep.Duplicates, Duplicate{URL: pageURL, Of: first, Field: "description"})
			} else {
				descs[page.description] = pageURL
			}
		}

		if page.words < c.minWords {
			rep.Thin = append(rep.Thin, ThinPage{URL: pageURL, Words: page.words})
		}

		for _, link := range page.links {
			resolved := c.resolve(pageURL, link)
			if resolved == "" {
				continue
			}
			if _, done := seen[resolved]; !done {
				queue = append(queue, resolved)
			}
		}
	}

	c.logger.Info("audit: crawl finished",
		slog.Int("pages", rep.Pages),
		slog.Int("errors", len(rep.Errors)),
		slog.Int("duplicates", len(rep.Duplicates)),
		slog.Int("thin", len(rep.Thin)))
	return rep, nil
}

func (c *Crawler) fetch(ctx context.Context, pageURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}

// resolve keeps only same-host links with a path, stripped of fragments and
// queries, normalised to absolute form.
func (c *Crawler) resolve(pageURL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	page, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	abs := page.ResolveReference(ref)
	if abs.Host != c.base.Host || abs.Scheme != c.base.Scheme {
		return ""
	}
	if abs.Fragment != "" || abs.RawQuery != "" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

type pageInfo struct {
	title       string
	description string
	canonical   string
	h1Count     int
	links       []string
	words       int
}

// parsePage extracts the audit-relevant facts from one HTML document.
func parsePage(body []byte) (*pageInfo, error) {
	root, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}

	page := &pageInfo{}
	var textParts []string

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "title":
				if page.title == "" {
					page.title = strings.TrimSpace(nodeText(n))
				}
			case "h1":
				page.h1Count++
			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") {
					page.description = attr(n, "content")
				}
			case "link":
				if strings.EqualFold(attr(n, "rel"), "canonical") {
					page.canonical = attr(n, "href")
				}
			case "a":
				if href := attr(n, "href"); href != "" {
					page.links = append(page.links, href)
				}
			}
		}
		if n.Type == html.TextNode {
			textParts = append(textParts, n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(root)

	page.words = len(strings.Fields(strings.Join(textParts, " ")))
	return page, nil
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == html.TextNode {
			sb.WriteString(child.Data)
		}
	}
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
