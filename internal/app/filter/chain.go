package filter

import (
	"context"

	zlog "github.com/rs/zerolog/log"
)

// Chain executes filters in sequence.
type Chain struct {
	filters []Filter
}

// NewChain creates a new filter chain.
func NewChain(filters ...Filter) *Chain {
	return &Chain{
		filters: append(make([]Filter, 0, len(filters)), filters...),
	}
}

// Add adds a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Execute runs all filters in sequence.
// Returns immediately if any filter rejects the candidate.
func (c *Chain) Execute(ctx context.Context, cand Candidate) Result {
	if c == nil {
		return Accept()
	}
	for _, f := range c.filters {
		result := f.Check(ctx, cand)
		if !result.Accepted {
			zlog.Debug().Msgf("filter: rejected: filter=%s code=%s locator=%s", f.Name(), result.Code, cand.Locator)
			return result
		}
	}
	return Accept()
}

// Filters returns all filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}
