package resolve

import (
	"context"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// SearchResolver treats input as a catalog query and takes the first hit.
type SearchResolver struct {
	client Searcher
}

// NewSearchResolver creates a new search resolver.
func NewSearchResolver(client Searcher) *SearchResolver {
	return &SearchResolver{client: client}
}

// Name returns the resolver name.
func (r *SearchResolver) Name() string {
	return NameSearch
}

// Resolve searches for input.
func (r *SearchResolver) Resolve(ctx context.Context, input string) ([]track.Track, error) {
	records, err := r.client.Search(ctx, input, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return []track.Track{records[0].Track()}, nil
}
