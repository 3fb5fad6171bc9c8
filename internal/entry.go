// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/search"
	"github.com/morstad/vitrine/internal/server"
	"github.com/morstad/vitrine/internal/site"
	"github.com/morstad/vitrine/internal/sse"
)

// Run starts serve mode: an initial build, a watcher that rebuilds the site
// when inputs change, and an HTTP server hosting the generated tree plus the
// query API and live-reload event stream.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("listings_path", cfg.Paths.Listings),
		slog.String("output_path", cfg.Paths.Output),
		slog.String("log_level", cfg.App.LogLevel.String()))

	builder, err := site.New(site.Options{
		BaseURL:        cfg.Site.BaseURL,
		SiteName:       cfg.Site.Name,
		ListingsPath:   cfg.Paths.Listings,
		CategoriesPath: cfg.Paths.Categories,
		TemplateDir:    cfg.Paths.Templates,
		PublicDir:      cfg.Paths.Public,
		OutDir:         cfg.Paths.Output,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("init builder: %w", err)
	}

	cat, err := builder.Build()
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}

	newGeneration := func(cat *catalog.Catalog) (*server.Directory, *search.Engine) {
		engine := search.NewEngine(search.DocsSource(cat.SearchDocs()), logger)
		return &server.Directory{
			Catalog:    cat,
			Controller: search.NewController(engine, search.CardsFromCatalog(cat)),
		}, engine
	}

	dir, engine := newGeneration(cat)
	handler := server.NewHandler(dir, cfg.Site.BaseURL)

	// Each successful build produces a fresh directory generation; the old
	// generation's index is released once the swap is done.
	var swapMu sync.Mutex
	liveEngine := engine
	swap := func(cat *catalog.Catalog) {
		dir, engine := newGeneration(cat)
		handler.Update(dir)

		swapMu.Lock()
		old := liveEngine
		liveEngine = engine
		swapMu.Unlock()
		if old != nil {
			_ = old.Close()
		}
	}
	defer func() {
		swapMu.Lock()
		defer swapMu.Unlock()
		if liveEngine != nil {
			_ = liveEngine.Close()
		}
	}()

	// SSE broker for build and reload events.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	var rebuildMu sync.Mutex
	rebuild := func() error {
		rebuildMu.Lock()
		defer rebuildMu.Unlock()
		next, err := builder.Build()
		if err != nil {
			return err
		}
		swap(next)
		return nil
	}

	watchRoots := []string{cfg.Paths.Listings, cfg.Paths.Categories}
	if cfg.Paths.Templates != "" {
		watchRoots = append(watchRoots, cfg.Paths.Templates)
	}
	if cfg.Paths.Public != "" {
		watchRoots = append(watchRoots, cfg.Paths.Public)
	}

	rebuilder := site.NewRebuilder(rebuild, func() map[string][]byte {
		return site.ReadInputs(watchRoots...)
	}, broker.PublishBuildEvent, logger)

	apiRouter := server.NewRouter(handler, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, rebuild)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Everything else is the generated static tree.
	r.Handle("/*", http.FileServer(http.Dir(builder.OutDir())))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start input watcher.
	g.Go(func() error {
		return site.Watch(gCtx, rebuilder, logger, watchRoots...)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
