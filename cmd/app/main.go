package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/morstad/vitrine/internal"
	"github.com/morstad/vitrine/internal/audit"
	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/mcpserver"
	"github.com/morstad/vitrine/internal/search"
	"github.com/morstad/vitrine/internal/site"
	pkgconfig "github.com/morstad/vitrine/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func newBuilder(cfg *internal.Config) (*site.Builder, error) {
	return site.New(site.Options{
		BaseURL:        cfg.Site.BaseURL,
		SiteName:       cfg.Site.Name,
		ListingsPath:   cfg.Paths.Listings,
		CategoriesPath: cfg.Paths.Categories,
		TemplateDir:    cfg.Paths.Templates,
		PublicDir:      cfg.Paths.Public,
		OutDir:         cfg.Paths.Output,
	})
}

func runBuild(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	cat, err := builder.Build()
	if err != nil {
		return err
	}
	if err := builder.WriteLDJSON(cat); err != nil {
		return err
	}
	return builder.WriteSitemap(cat)
}

func runValidate(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Paths.Listings, cfg.Paths.Categories)
	if err != nil {
		return err
	}

	report := cat.Validate()
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "error: %s\n", e)
	}
	if !report.OK() {
		return fmt.Errorf("validation failed: %d error(s)", len(report.Errors))
	}
	fmt.Printf("catalog ok: %d listings, %d categories, %d warning(s)\n",
		len(cat.Listings), len(cat.Categories), len(report.Warnings))
	return nil
}

func runSitemap(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if base := cmd.String("base"); base != "" {
		cfg.Site.BaseURL = base
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Paths.Listings, cfg.Paths.Categories)
	if err != nil {
		return err
	}
	return builder.WriteSitemap(cat)
}

func runLDJSON(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.Paths.Listings, cfg.Paths.Categories)
	if err != nil {
		return err
	}
	return builder.WriteLDJSON(cat)
}

func runAudit(ctx context.Context, cmd *cli.Command) error {
	base := cmd.String("base")
	if base == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		base = cfg.Site.BaseURL
	}

	crawler, err := audit.New(base, slog.Default(),
		audit.WithMaxPages(int(cmd.Int("max-pages"))))
	if err != nil {
		return err
	}

	report, err := crawler.Run(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteCSV(cmd.String("out")); err != nil {
		return err
	}

	fmt.Printf("audited %d pages: %d issue(s), %d duplicate(s), %d thin page(s)\n",
		report.Pages, len(report.Errors), len(report.Duplicates), len(report.Thin))
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Paths.Listings, cfg.Paths.Categories)
	if err != nil {
		return err
	}

	engine := search.NewEngine(search.DocsSource(cat.SearchDocs()), slog.Default())
	defer engine.Close()
	engine.Ensure(ctx)

	return mcpserver.New(cat, engine).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "vitrine",
		Usage: "Static directory site generator with full-text search, validation, and SEO tooling",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "build",
				Usage:  "Render the full site: pages, search feed, JSON-LD, and sitemap",
				Action: runBuild,
			},
			{
				Name:   "validate",
				Usage:  "Validate the catalog data files",
				Action: runValidate,
			},
			{
				Name:   "sitemap",
				Usage:  "Regenerate sitemap.xml (split with an index above the protocol limit)",
				Action: runSitemap,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "base",
						Usage: "Base URL override",
					},
				},
			},
			{
				Name:   "ldjson",
				Usage:  "Regenerate the standalone JSON-LD payloads",
				Action: runLDJSON,
			},
			{
				Name:   "audit",
				Usage:  "Crawl a deployed site and report SEO and content-quality problems",
				Action: runAudit,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "base",
						Usage: "Site URL to crawl (defaults to the configured base URL)",
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Directory for CSV reports",
						Value: "audit-reports",
					},
					&cli.IntFlag{
						Name:  "max-pages",
						Usage: "Crawl page limit",
						Value: 500,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the site with live rebuilds and the query API",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
