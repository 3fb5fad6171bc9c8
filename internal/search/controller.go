package search

import (
	"context"
	"sync"
	"sync/atomic"
)

// Controller coordinates the input controls: each setter replaces exactly
// one field of the query state and triggers a full recompute. Because query
// resolution suspends, a later update may finish before an earlier one; the
// controller stamps every recomputation with a monotonically increasing
// sequence number and discards any resolution that is no longer the latest
// issued (last-writer-wins by issuance order).
type Controller struct {
	engine *Engine

	seq atomic.Uint64

	mu      sync.Mutex
	cards   []Card
	state   QueryState
	applied uint64
	visible []Card
}

// NewController creates a controller over the engine and card set. The
// initial visible set is every card in rank order, matching first render.
func NewController(engine *Engine, cards []Card) *Controller {
	c := &Controller{
		engine: engine,
		cards:  cards,
		state:  NewQueryState(),
	}
	c.visible = Reconcile(cards, nil, c.state)
	return c
}

// SetText replaces the search text and recomputes.
func (c *Controller) SetText(ctx context.Context, text string) []Card {
	return c.apply(ctx, func(s *QueryState) { s.Text = text })
}

// SetCategory replaces the category selector and recomputes.
func (c *Controller) SetCategory(ctx context.Context, category string) []Card {
	return c.apply(ctx, func(s *QueryState) { s.Category = category })
}

// SetPricing replaces the pricing selector and recomputes.
func (c *Controller) SetPricing(ctx context.Context, pricing string) []Card {
	return c.apply(ctx, func(s *QueryState) { s.Pricing = pricing })
}

// SetSort replaces the sort key and recomputes.
func (c *Controller) SetSort(ctx context.Context, key Sort) []Card {
	return c.apply(ctx, func(s *QueryState) { s.Sort = key })
}

// State returns a copy of the current query state.
func (c *Controller) State() QueryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Visible returns the most recently applied visible set.
func (c *Controller) Visible() []Card {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visible
}

// apply mutates one state field, resolves the search text, and reconciles.
// Stale resolutions (superseded while suspended) leave the applied snapshot
// untouched and return the current visible set instead.
func (c *Controller) apply(ctx context.Context, mutate func(*QueryState)) []Card {
	c.mu.Lock()
	mutate(&c.state)
	state := c.state
	c.mu.Unlock()

	seq := c.seq.Add(1)

	// Suspension point: may race with a later update.
	slugs := c.engine.Search(ctx, state.Text)
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq.Load() || seq <= c.applied {
		// A newer update was issued while this one was in flight; discard.
		return c.visible
	}
	c.applied = seq
	c.visible = Reconcile(c.cards, set, state)
	return c.visible
}

// Resolve computes a one-shot visible set for an arbitrary state without
// touching the controller's own snapshot. Used by stateless callers such as
// the HTTP search endpoint.
func (c *Controller) Resolve(ctx context.Context, state QueryState) []Card {
	slugs := c.engine.Search(ctx, state.Text)
	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return Reconcile(c.cards, set, state)
}
