package resolve

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// Chain tries resolvers in order; the first one that handles the input wins.
type Chain struct {
	resolvers []Resolver
}

// NewChain creates a new resolver chain.
func NewChain(resolvers ...Resolver) *Chain {
	return &Chain{
		resolvers: resolvers,
	}
}

// Resolve returns the tracks for input.
func (c *Chain) Resolve(ctx context.Context, input string) ([]track.Track, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.Wrap(ErrNoMatch, "input is empty")
	}

	for i, r := range c.resolvers {
		tracks, err := r.Resolve(ctx, input)
		if errors.Is(err, ErrNotApplicable) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "resolver %s failed", r.Name())
		}
		if len(tracks) == 0 {
			return nil, errors.Wrapf(ErrNoMatch, "resolver %s", r.Name())
		}

		zlog.Debug().Msgf("resolve: resolved: index=%d resolver=%s input=%s tracks=%d",
			i+1, r.Name(), input, len(tracks))
		return tracks, nil
	}

	return nil, errors.Wrapf(ErrNoMatch, "input=%s", input)
}

// Names returns the resolver names in order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.resolvers))
	for i, r := range c.resolvers {
		names[i] = r.Name()
	}
	return names
}
