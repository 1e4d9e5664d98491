package resolve

import (
	"context"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// CollectionResolver expands collection locators into their entries.
type CollectionResolver struct {
	client CollectionClient
}

// NewCollectionResolver creates a new collection resolver.
func NewCollectionResolver(client CollectionClient) *CollectionResolver {
	return &CollectionResolver{client: client}
}

// Name returns the resolver name.
func (r *CollectionResolver) Name() string {
	return NameCollection
}

// Resolve resolves a collection locator.
func (r *CollectionResolver) Resolve(ctx context.Context, input string) ([]track.Track, error) {
	if !track.IsCollection(input) {
		return nil, ErrNotApplicable
	}
	pl, err := r.client.ResolveCollection(ctx, input)
	if err != nil {
		return nil, err
	}
	return pl.Tracks(), nil
}
