package apiv1

import (
	"github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/domain/track"
)

// FromTrack converts a domain track.
func FromTrack(t track.Track) Track {
	return Track{
		Title:     t.Title,
		Locator:   t.Locator,
		Origin:    t.Origin.String(),
		ContentID: t.ContentID(),
	}
}

// FromTracks converts domain tracks, preserving order.
func FromTracks(tracks []track.Track) []Track {
	out := make([]Track, len(tracks))
	for i, t := range tracks {
		out[i] = FromTrack(t)
	}
	return out
}

// FromRecord converts a catalog record.
func FromRecord(r track.Record) Record {
	return Record{
		ID:          r.ID,
		Title:       r.Title,
		Uploader:    r.Uploader,
		Locator:     r.Locator(),
		DurationSec: r.Duration.Seconds(),
	}
}

// FromSnapshot converts a download task snapshot.
func FromSnapshot(s download.Snapshot) DownloadTask {
	return DownloadTask{
		ID:         s.ID,
		Locator:    s.Locator,
		Title:      s.Title,
		ContentID:  s.ContentID,
		Group:      s.Group,
		Status:     s.Status.String(),
		Progress:   s.Progress,
		SpeedBps:   s.Speed,
		ETASec:     int64(s.ETA.Seconds()),
		Error:      s.Error,
		FinalPath:  s.FinalPath,
		CreatedAt:  s.CreatedAt,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}
