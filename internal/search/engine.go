// Package search implements the directory query engine: a lazily built
// full-text index with a guaranteed linear-scan fallback, plus the
// filter/sort reconciliation that decides which cards are visible and in
// what order.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/index"
)

// defaultBuildTimeout bounds the one-time index construction.
const defaultBuildTimeout = 30 * time.Second

// Source supplies the document feed the index is built from.
type Source interface {
	Fetch(ctx context.Context) ([]catalog.SearchDoc, error)
}

// FileSource reads the feed from a search-index.json file on disk.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s FileSource) Fetch(_ context.Context) ([]catalog.SearchDoc, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("search: read feed: %w", err)
	}
	var docs []catalog.SearchDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("search: parse feed: %w", err)
	}
	return docs, nil
}

// HTTPSource fetches the feed from a URL.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

// Fetch implements Source.
func (s HTTPSource) Fetch(ctx context.Context) ([]catalog.SearchDoc, error) {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("search: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: fetch feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search: fetch feed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, fmt.Errorf("search: read feed body: %w", err)
	}
	var docs []catalog.SearchDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("search: parse feed: %w", err)
	}
	return docs, nil
}

// DocsSource wraps an already-loaded document set (serve mode, tests).
type DocsSource []catalog.SearchDoc

// Fetch implements Source.
func (s DocsSource) Fetch(_ context.Context) ([]catalog.SearchDoc, error) {
	return s, nil
}

// Engine answers text queries over the document feed. Construction is
// memoised: the first call to Ensure (or Search) builds the index exactly
// once and every concurrent caller awaits that same build. When the index
// cannot be opened the engine silently downgrades to a linear scan; when the
// feed itself cannot be fetched the engine is an empty capability: queries
// return no results and no error reaches the caller.
type Engine struct {
	source       Source
	indexDSN     string
	buildTimeout time.Duration
	logger       *slog.Logger

	once     sync.Once
	docs     []catalog.SearchDoc
	resolver Resolver
	scan     scanResolver
	db       *index.DB
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithIndexDSN sets the SQLite DSN for the index (default in-memory).
func WithIndexDSN(dsn string) EngineOption {
	return func(e *Engine) { e.indexDSN = dsn }
}

// WithBuildTimeout bounds the one-time build.
func WithBuildTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.buildTimeout = d }
}

// NewEngine creates an engine over the given feed source. The index is not
// built until the first query.
func NewEngine(source Source, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		source:       source,
		indexDSN:     ":memory:",
		buildTimeout: defaultBuildTimeout,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ensure builds the index if it has not been built yet. Safe for concurrent
// use; all callers share the single in-flight build.
func (e *Engine) Ensure(ctx context.Context) {
	e.once.Do(func() {
		buildCtx, cancel := context.WithTimeout(ctx, e.buildTimeout)
		defer cancel()
		e.build(buildCtx)
	})
}

func (e *Engine) build(ctx context.Context) {
	docs, err := e.source.Fetch(ctx)
	if err != nil {
		// Fatal to search but not to the page: the engine stays empty.
		e.logger.Warn("search: feed unavailable, search disabled", slog.String("error", err.Error()))
		e.scan = scanResolver{}
		e.resolver = e.scan
		return
	}
	e.docs = docs
	e.scan = scanResolver{docs: docs}

	db, err := index.Open(e.indexDSN)
	if err != nil {
		e.logger.Warn("search: index unavailable, using linear fallback", slog.String("error", err.Error()))
		e.resolver = e.scan
		return
	}
	if err := db.ReplaceAll(docs); err != nil {
		e.logger.Warn("search: index ingest failed, using linear fallback", slog.String("error", err.Error()))
		db.Close()
		e.resolver = e.scan
		return
	}
	e.db = db
	e.resolver = ftsResolver{db: db}
	e.logger.Debug("search: index built", slog.Int("documents", len(docs)))
}

// Search resolves a text query to matching slugs. A blank or whitespace-only
// query returns the full slug universe. Search never returns an error: a
// resolver failure falls back to the linear scan for that query.
func (e *Engine) Search(ctx context.Context, query string) []string {
	e.Ensure(ctx)

	if isBlank(query) {
		return e.AllSlugs()
	}

	slugs, err := e.resolver.Search(ctx, query)
	if err != nil {
		// Malformed index queries (e.g. unbalanced quotes in FTS syntax)
		// degrade to the scan path rather than surfacing an error.
		e.logger.Debug("search: resolver failed, scanning", slog.String("error", err.Error()))
		slugs, _ = e.scan.Search(ctx, query)
	}
	if slugs == nil {
		slugs = []string{}
	}
	return slugs
}

// AllSlugs returns the slug universe in feed order.
func (e *Engine) AllSlugs() []string {
	out := make([]string, len(e.docs))
	for i, doc := range e.docs {
		out[i] = doc.Slug
	}
	return out
}

// Docs returns the loaded document set (empty before Ensure or after a feed
// failure).
func (e *Engine) Docs() []catalog.SearchDoc {
	return e.docs
}

// Close releases the underlying index, if one was built.
func (e *Engine) Close() error {
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}
