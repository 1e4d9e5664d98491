// Package track provides the Track domain entity.
package track

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Origin describes where a track's audio comes from.
type Origin int

const (
	OriginStreaming Origin = iota // Network stream resolved by the player
	OriginLocal                   // File on the local filesystem
)

// String returns the string representation of the origin.
func (o Origin) String() string {
	switch o {
	case OriginStreaming:
		return "streaming"
	case OriginLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Track represents a playable item.
// Tracks are values; each queue owns its own copies.
type Track struct {
	Title   string // Display title
	Locator string // URL or filesystem path
	Origin  Origin // Streaming or local
}

// NewStreaming creates a streaming track.
func NewStreaming(title, locator string) Track {
	if title == "" {
		title = locator
	}
	return Track{Title: title, Locator: locator, Origin: OriginStreaming}
}

// NewLocal creates a local track from a file path.
// The title is derived from the file name when empty.
func NewLocal(title, path string) Track {
	if title == "" {
		title = TitleFromFilename(path)
	}
	return Track{Title: title, Locator: path, Origin: OriginLocal}
}

// IsLocal returns true if the track is a local file.
func (t Track) IsLocal() bool {
	return t.Origin == OriginLocal
}

// ContentID returns the content identifier addressed by the track's locator.
func (t Track) ContentID() string {
	return ContentID(t.Locator)
}

// Record is a catalog entry returned by search or collection resolution.
type Record struct {
	ID       string        // Content identifier
	Title    string        // Title
	Uploader string        // Channel or uploader name
	Duration time.Duration // Duration (zero when unknown)
}

// Locator returns the canonical watch URL for the record.
func (r Record) Locator() string {
	return WatchURL(r.ID)
}

// Track converts the record to a streaming track.
func (r Record) Track() Track {
	return NewStreaming(r.Title, r.Locator())
}

// WatchURL returns the canonical watch URL for a content identifier.
func WatchURL(id string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
}

// TitleFromFilename strips the directory, extension and embedded
// "[id]" suffix from a downloaded file name.
func TitleFromFilename(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if id := idFromFilename(base); id != "" {
		name = strings.TrimSuffix(name, "["+id+"]")
	}
	return strings.TrimSpace(name)
}
