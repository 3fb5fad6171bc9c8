package mcpserver

// ListingFormatContract describes the canonical catalog record format that
// LLM consumers should follow when proposing new or updated listings.
const ListingFormatContract = `# Vitrine Listing Format Contract

Every listing in the catalog (sites.json, under the top-level "sites" array)
MUST follow this structure.

## Structure

` + "```" + `json
{
  "id": "unique-id",
  "slug": "example-tool",
  "name": "Example Tool",
  "summary": "At least twenty-five words describing what the tool does...",
  "website": "https://example.com",
  "categories": ["images"],
  "tags": ["generator", "api"],
  "pricing": "freemium",
  "rank": 3,
  "rating": 4.2,
  "votes": 128,
  "lastChecked": "2026-08-01",
  "languages": ["en"],
  "social": { "twitter": "https://twitter.com/example" }
}
` + "```" + `

## Rules

1. **slug is the primary key.** Lowercase kebab-case, unique across the
   catalog, stable once published (it is the page URL).
2. **name, website, and categories are required.** The website must be an
   absolute URL. Every category must exist in categories.json.
3. **pricing** is one of: free, freemium, paid, unknown. Omitted means unknown.
4. **rank** is a positive editorial priority; lower is better. Omit it for
   unranked listings — never use 0 or -1 as a placeholder.
5. **rating** is 0–5 with one decimal; omit when unrated.
6. **lastChecked** is an ISO date (YYYY-MM-DD) of the last manual review.
7. **summary** should run at least twenty-five words; shorter summaries
   trigger editorial warnings during validation.
`
