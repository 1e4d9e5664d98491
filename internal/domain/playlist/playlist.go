// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/ytbeats/internal/domain/track"

// Playlist represents a collection resolved from a collection locator.
type Playlist struct {
	ID      string         // Collection ID
	Name    string         // Collection title
	URL     string         // Collection locator
	Records []track.Record // Entries in collection order
}

// TrackIDs returns all content IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Records))
	for i, r := range p.Records {
		ids[i] = r.ID
	}
	return ids
}

// TotalDuration returns the total duration of all entries in seconds.
// Entries with an unknown duration count as zero.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, r := range p.Records {
		total += int64(r.Duration.Seconds())
	}
	return total
}

// Tracks converts the entries to streaming tracks, preserving order.
func (p *Playlist) Tracks() []track.Track {
	tracks := make([]track.Track, len(p.Records))
	for i, r := range p.Records {
		tracks[i] = r.Track()
	}
	return tracks
}
