// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes directory tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/morstad/vitrine/internal/catalog"
	"github.com/morstad/vitrine/internal/search"
)

// Server wraps the MCP server with vitrine tools.
type Server struct {
	mcp    *server.MCPServer
	cat    *catalog.Catalog
	engine *search.Engine
}

// New creates an MCP server with all directory tools registered.
func New(cat *catalog.Catalog, engine *search.Engine) *Server {
	s := &Server{cat: cat, engine: engine}

	s.mcp = server.NewMCPServer(
		"Vitrine",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_directory",
		mcp.WithDescription("Full-text search across listing names, summaries, categories, tags, and websites."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDirectory)

	s.mcp.AddTool(mcp.NewTool("get_listing",
		mcp.WithDescription("Read the full record of one directory listing."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Listing slug (e.g. example-tool)")),
	), s.getListing)

	s.mcp.AddTool(mcp.NewTool("list_listings",
		mcp.WithDescription("List all listings, or the listings in one category."),
		mcp.WithString("category", mcp.Description("Optional category id (empty for all)")),
	), s.listListings)

	s.mcp.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List every directory category."),
	), s.listCategories)

	// Resource: catalog data contract.
	s.mcp.AddResource(
		mcp.NewResource("vitrine://listing-format", "Listing Format Contract",
			mcp.WithResourceDescription("Canonical JSON shape that all catalog listings must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readListingFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchDirectory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slugs := s.engine.Search(ctx, query)
	if len(slugs) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (s *Server) getListing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listing, err := s.cat.Listing(slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(listing, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listListings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}

	listings := s.cat.Listings
	if category != "" {
		listings = s.cat.InCategory(category)
	}

	var slugs []string
	for _, l := range listings {
		slugs = append(slugs, l.Slug)
	}
	if len(slugs) == 0 {
		return mcp.NewToolResultText("no listings"), nil
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (s *Server) listCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var lines []string
	for _, c := range s.cat.Categories {
		lines = append(lines, fmt.Sprintf("%s\t%s", c.ID, c.Name))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no categories"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readListingFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "vitrine://listing-format",
			MIMEType: "text/markdown",
			Text:     ListingFormatContract,
		},
	}, nil
}
