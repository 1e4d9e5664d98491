package resolve

import (
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Resolver names accepted in configuration.
const (
	NameLocal      = "local"
	NameCollection = "collection"
	NameStream     = "stream"
	NameSearch     = "search"
)

// Sources are the collaborators resolvers draw from.
type Sources struct {
	Collections CollectionClient
	Search      Searcher
}

// NewChainFromConfig creates a resolver chain from the configured names.
func NewChainFromConfig(names []string, src Sources) (*Chain, error) {
	if len(names) == 0 {
		return nil, errors.New("no resolvers configured")
	}

	var resolvers []Resolver
	for i, name := range names {
		var r Resolver
		switch name {
		case NameLocal:
			r = NewLocalResolver()
		case NameCollection:
			if src.Collections == nil {
				return nil, errors.Newf("resolver %s requires a collection client (index %d)", name, i)
			}
			r = NewCollectionResolver(src.Collections)
		case NameStream:
			r = NewStreamResolver()
		case NameSearch:
			if src.Search == nil {
				return nil, errors.Newf("resolver %s requires a search client (index %d)", name, i)
			}
			r = NewSearchResolver(src.Search)
		default:
			return nil, errors.Newf("unsupported resolver: %s (index %d)", name, i)
		}

		resolvers = append(resolvers, r)
		zlog.Debug().Msgf("resolve: registered resolver: index=%d name=%s", i+1, name)
	}

	return NewChain(resolvers...), nil
}
