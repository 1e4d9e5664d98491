// Package resolve turns user input into playable tracks.
package resolve

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/ytbeats/internal/domain/playlist"
	"github.com/osa030/ytbeats/internal/domain/track"
)

// Errors
var (
	// ErrNotApplicable is returned by a resolver that does not handle the input.
	ErrNotApplicable = errors.New("input not handled by resolver")
	// ErrNoMatch is returned when no resolver produced tracks.
	ErrNoMatch = errors.New("no tracks found for input")
)

// Resolver is the interface for input resolution strategies.
type Resolver interface {
	// Name returns the resolver name (used in config).
	Name() string
	// Resolve returns the tracks addressed by input, or ErrNotApplicable.
	Resolve(ctx context.Context, input string) ([]track.Track, error)
}

// Searcher runs catalog searches.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]track.Record, error)
}

// CollectionClient resolves collection locators.
type CollectionClient interface {
	ResolveCollection(ctx context.Context, locator string) (*playlist.Playlist, error)
}
