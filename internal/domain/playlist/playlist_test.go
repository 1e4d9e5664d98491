package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/ytbeats/internal/domain/track"
)

func TestPlaylist_TrackIDs(t *testing.T) {
	tests := []struct {
		name     string
		records  []track.Record
		expected []string
	}{
		{
			name:     "empty playlist",
			records:  []track.Record{},
			expected: []string{},
		},
		{
			name: "single entry",
			records: []track.Record{
				{ID: "aaaaaaaaaaa"},
			},
			expected: []string{"aaaaaaaaaaa"},
		},
		{
			name: "multiple entries keep order",
			records: []track.Record{
				{ID: "ccccccccccc"},
				{ID: "aaaaaaaaaaa"},
				{ID: "bbbbbbbbbbb"},
			},
			expected: []string{"ccccccccccc", "aaaaaaaaaaa", "bbbbbbbbbbb"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{
				ID:      "PL-1",
				Records: tt.records,
			}

			result := p.TrackIDs()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name     string
		records  []track.Record
		expected int64
	}{
		{
			name:     "empty playlist",
			records:  []track.Record{},
			expected: 0,
		},
		{
			name: "single entry",
			records: []track.Record{
				{ID: "aaaaaaaaaaa", Duration: 3 * time.Minute}, // 180 seconds
			},
			expected: 180,
		},
		{
			name: "unknown durations count as zero",
			records: []track.Record{
				{ID: "aaaaaaaaaaa", Duration: 2 * time.Minute},
				{ID: "bbbbbbbbbbb"},
				{ID: "ccccccccccc", Duration: 3*time.Minute + 30*time.Second},
			},
			expected: 330, // 120 + 0 + 210
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{
				ID:      "PL-1",
				Name:    "Test Playlist",
				Records: tt.records,
			}

			result := p.TotalDuration()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestPlaylist_Tracks(t *testing.T) {
	p := &Playlist{
		ID:   "PL-1",
		Name: "Mix",
		URL:  "https://www.youtube.com/playlist?list=PL-1",
		Records: []track.Record{
			{ID: "aaaaaaaaaaa", Title: "Song 1"},
			{ID: "bbbbbbbbbbb", Title: "Song 2"},
		},
	}

	tracks := p.Tracks()
	assert.Len(t, tracks, 2)
	assert.Equal(t, "Song 1", tracks[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=bbbbbbbbbbb", tracks[1].Locator)
	assert.Equal(t, track.OriginStreaming, tracks[1].Origin)
}
