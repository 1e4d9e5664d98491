package resolve

import (
	"context"
	"net/url"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// StreamResolver passes network locators and bare content IDs through as
// streaming tracks.
type StreamResolver struct{}

// NewStreamResolver creates a new stream resolver.
func NewStreamResolver() *StreamResolver {
	return &StreamResolver{}
}

// Name returns the resolver name.
func (r *StreamResolver) Name() string {
	return NameStream
}

// Resolve resolves a URL or bare content ID.
func (r *StreamResolver) Resolve(ctx context.Context, input string) ([]track.Track, error) {
	if id := track.ContentID(input); id == input {
		return []track.Track{track.NewStreaming("", track.WatchURL(id))}, nil
	}

	u, err := url.Parse(input)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrNotApplicable
	}
	return []track.Track{track.NewStreaming("", input)}, nil
}
