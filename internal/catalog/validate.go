package catalog

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var slugRe = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// minSummaryWords is the editorial floor below which a summary only warns.
const minSummaryWords = 25

// Validate checks a single listing's fields.
func (l Listing) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Slug, validation.Required, validation.Match(slugRe).Error("must be kebab-case")),
		validation.Field(&l.Name, validation.Required),
		validation.Field(&l.Website, validation.Required, is.URL),
		validation.Field(&l.Categories, validation.Required),
		validation.Field(&l.Pricing, validation.In(PricingFree, PricingFreemium, PricingPaid, PricingUnknown)),
		validation.Field(&l.Rank, validation.Min(0)),
		validation.Field(&l.Rating, validation.Min(0.0), validation.Max(5.0)),
		validation.Field(&l.Votes, validation.Min(0)),
		validation.Field(&l.LastChecked, validation.Date("2006-01-02")),
	)
}

// Validate checks a category's fields.
func (c Category) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ID, validation.Required, validation.Match(slugRe).Error("must be kebab-case")),
		validation.Field(&c.Name, validation.Required),
	)
}

// Report is the outcome of catalog validation. Errors block a build;
// warnings are editorial and informational only.
type Report struct {
	Errors   []string
	Warnings []string
}

// OK reports whether the catalog had no blocking errors.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

func (r *Report) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs field rules over every record plus the cross-record checks:
// duplicate slugs and ids, and references to categories that do not exist.
func (c *Catalog) Validate() *Report {
	rep := &Report{}

	categoryIDs := make(map[string]struct{}, len(c.Categories))
	for _, cat := range c.Categories {
		if err := cat.Validate(); err != nil {
			rep.errorf("category %s: %v", cat.ID, err)
		}
		if _, dup := categoryIDs[cat.ID]; dup {
			rep.errorf("duplicate category id: %s", cat.ID)
		}
		categoryIDs[cat.ID] = struct{}{}
	}

	slugs := make(map[string]struct{}, len(c.Listings))
	ids := make(map[string]struct{}, len(c.Listings))
	for _, l := range c.Listings {
		if err := l.Validate(); err != nil {
			rep.errorf("listing %s: %v", l.Slug, err)
		}

		if _, dup := slugs[l.Slug]; dup {
			rep.errorf("duplicate slug: %s", l.Slug)
		}
		slugs[l.Slug] = struct{}{}

		if l.ID != "" {
			if _, dup := ids[l.ID]; dup {
				rep.errorf("duplicate id: %s", l.ID)
			}
			ids[l.ID] = struct{}{}
		}

		var missing []string
		for _, cat := range l.Categories {
			if _, ok := categoryIDs[cat]; !ok {
				missing = append(missing, cat)
			}
		}
		if len(missing) > 0 {
			rep.errorf("listing %s references unknown categories: %s", l.Slug, strings.Join(missing, ", "))
		}

		if len(strings.Fields(l.Summary)) < minSummaryWords {
			rep.warnf("summary for %s could be longer to meet editorial guidelines", l.Slug)
		}
	}

	return rep
}
