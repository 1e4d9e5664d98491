package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/ytbeats/internal/domain/playlist"
	"github.com/osa030/ytbeats/internal/domain/track"
)

type mockCatalog struct {
	records   []track.Record
	searchErr error
	queries   []string
	pl        *playlist.Playlist
}

func (m *mockCatalog) Search(ctx context.Context, query string, limit int) ([]track.Record, error) {
	m.queries = append(m.queries, query)
	return m.records, m.searchErr
}

func (m *mockCatalog) ResolveCollection(ctx context.Context, locator string) (*playlist.Playlist, error) {
	if m.pl == nil {
		return nil, errors.New("not found")
	}
	return m.pl, nil
}

func newTestChain(t *testing.T, cat *mockCatalog) *Chain {
	t.Helper()
	chain, err := NewChainFromConfig(
		[]string{NameLocal, NameCollection, NameStream, NameSearch},
		Sources{Collections: cat, Search: cat},
	)
	require.NoError(t, err)
	return chain
}

func TestChain_Resolve(t *testing.T) {
	dir := t.TempDir()
	song := filepath.Join(dir, "Song [dQw4w9WgXcQ].mp3")
	require.NoError(t, os.WriteFile(song, nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Other.flac"), nil, 0o644))

	cat := &mockCatalog{
		records: []track.Record{{ID: "9bZkp7q19f0", Title: "Hit"}, {ID: "aaaaaaaaaaa", Title: "Second"}},
		pl: &playlist.Playlist{Records: []track.Record{
			{ID: "dQw4w9WgXcQ", Title: "One"},
			{ID: "9bZkp7q19f0", Title: "Two"},
		}},
	}

	tests := []struct {
		name        string
		input       string
		wantTitles  []string
		wantOrigin  track.Origin
		wantLocator string
	}{
		{name: "local file", input: song, wantTitles: []string{"Song"}, wantOrigin: track.OriginLocal, wantLocator: song},
		{name: "local directory", input: dir, wantTitles: []string{"Other", "Song"}, wantOrigin: track.OriginLocal},
		{
			name:       "collection",
			input:      "https://www.youtube.com/playlist?list=PL123",
			wantTitles: []string{"One", "Two"},
			wantOrigin: track.OriginStreaming,
		},
		{
			name:        "stream url",
			input:       "https://youtu.be/dQw4w9WgXcQ",
			wantTitles:  []string{"https://youtu.be/dQw4w9WgXcQ"},
			wantOrigin:  track.OriginStreaming,
			wantLocator: "https://youtu.be/dQw4w9WgXcQ",
		},
		{
			name:        "bare id",
			input:       "dQw4w9WgXcQ",
			wantTitles:  []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
			wantOrigin:  track.OriginStreaming,
			wantLocator: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		},
		{
			name:        "search",
			input:       "never gonna give you up",
			wantTitles:  []string{"Hit"},
			wantOrigin:  track.OriginStreaming,
			wantLocator: "https://www.youtube.com/watch?v=9bZkp7q19f0",
		},
	}

	chain := newTestChain(t, cat)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, err := chain.Resolve(context.Background(), tt.input)
			require.NoError(t, err)

			titles := make([]string, len(tracks))
			for i, tr := range tracks {
				titles[i] = tr.Title
				assert.Equal(t, tt.wantOrigin, tr.Origin)
			}
			assert.Equal(t, tt.wantTitles, titles)
			if tt.wantLocator != "" {
				assert.Equal(t, tt.wantLocator, tracks[0].Locator)
			}
		})
	}
}

func TestChain_ResolveErrors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := newTestChain(t, &mockCatalog{}).Resolve(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("no search results", func(t *testing.T) {
		_, err := newTestChain(t, &mockCatalog{}).Resolve(context.Background(), "obscure query")
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("search failure", func(t *testing.T) {
		cat := &mockCatalog{searchErr: errors.New("network down")}
		_, err := newTestChain(t, cat).Resolve(context.Background(), "query")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "network down")
	})

	t.Run("not audio", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		require.NoError(t, os.WriteFile(path, nil, 0o644))
		_, err := newTestChain(t, &mockCatalog{}).Resolve(context.Background(), path)
		assert.Error(t, err)
	})

	t.Run("nothing applicable", func(t *testing.T) {
		chain := NewChain(NewStreamResolver())
		_, err := chain.Resolve(context.Background(), "plain words")
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestNewChainFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		src     Sources
		wantErr bool
	}{
		{name: "defaults", names: []string{"local", "collection", "stream", "search"}, src: Sources{Collections: &mockCatalog{}, Search: &mockCatalog{}}},
		{name: "offline only", names: []string{"local", "stream"}},
		{name: "empty", names: nil, wantErr: true},
		{name: "unknown", names: []string{"telepathy"}, wantErr: true},
		{name: "search without client", names: []string{"search"}, wantErr: true},
		{name: "collection without client", names: []string{"collection"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chain, err := NewChainFromConfig(tt.names, tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.names, chain.Names())
		})
	}
}
