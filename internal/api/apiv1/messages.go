// Package apiv1 defines the ytbeats.v1 API messages.
package apiv1

import "time"

// Empty is the message of requests and responses without fields.
type Empty struct{}

// Track is a playable item.
type Track struct {
	Title     string `json:"title"`
	Locator   string `json:"locator"`
	Origin    string `json:"origin"`
	ContentID string `json:"content_id,omitempty"`
}

// Record is a catalog search result.
type Record struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Uploader    string  `json:"uploader,omitempty"`
	Locator     string  `json:"locator"`
	DurationSec float64 `json:"duration_sec"`
}

// PlayerStatus is the player and queue state.
type PlayerStatus struct {
	Available   bool    `json:"available"`
	Phase       string  `json:"phase"`
	Error       string  `json:"error,omitempty"`
	Paused      bool    `json:"paused"`
	Idle        bool    `json:"idle"`
	PositionSec float64 `json:"position_sec"`
	DurationSec float64 `json:"duration_sec"`
	Title       string  `json:"title"`
	Artist      string  `json:"artist,omitempty"`
	Volume      int     `json:"volume"`
	QueueState  string  `json:"queue_state"`
	QueueLength int     `json:"queue_length"`
	Current     int     `json:"current"`
}

// QueueItem is one queue entry.
type QueueItem struct {
	Index  int    `json:"index"`
	Track  Track  `json:"track"`
	Status string `json:"status"`
}

// QueueResponse lists the queue.
type QueueResponse struct {
	Items   []QueueItem `json:"items"`
	Current int         `json:"current"`
	State   string      `json:"state"`
}

// InputRequest carries user input: a path, URL, content ID or search query.
type InputRequest struct {
	Input string `json:"input"`
}

// TracksResponse lists the tracks an operation queued.
type TracksResponse struct {
	Tracks []Track `json:"tracks"`
}

// PlayAllRequest plays the local library, optionally a single group.
type PlayAllRequest struct {
	Group string `json:"group,omitempty"`
}

// SetVolumeRequest sets an absolute volume.
type SetVolumeRequest struct {
	Volume int `json:"volume"`
}

// ChangeVolumeRequest changes the volume relatively.
type ChangeVolumeRequest struct {
	Delta int `json:"delta"`
}

// VolumeResponse reports the resulting volume.
type VolumeResponse struct {
	Volume int `json:"volume"`
}

// SearchRequest queries the catalog.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse lists catalog results.
type SearchResponse struct {
	Results []Record `json:"results"`
}

// DownloadTask is a download task snapshot.
type DownloadTask struct {
	ID         string    `json:"id"`
	Locator    string    `json:"locator"`
	Title      string    `json:"title"`
	ContentID  string    `json:"content_id,omitempty"`
	Group      string    `json:"group,omitempty"`
	Status     string    `json:"status"`
	Progress   float64   `json:"progress"`
	SpeedBps   float64   `json:"speed_bps,omitempty"`
	ETASec     int64     `json:"eta_sec,omitempty"`
	Error      string    `json:"error,omitempty"`
	FinalPath  string    `json:"final_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// AddDownloadRequest requests a download.
type AddDownloadRequest struct {
	Locator string `json:"locator"`
	Title   string `json:"title,omitempty"`
	Group   string `json:"group,omitempty"`
}

// AddDownloadResponse reports the queued task.
type AddDownloadResponse struct {
	Task DownloadTask `json:"task"`
}

// ListDownloadsResponse lists all tasks in insertion order.
type ListDownloadsResponse struct {
	Tasks []DownloadTask `json:"tasks"`
}

// LibraryRequest lists the local library, optionally a single group.
type LibraryRequest struct {
	Group string `json:"group,omitempty"`
}

// LibraryEntry is one downloaded file.
type LibraryEntry struct {
	Path      string    `json:"path"`
	Group     string    `json:"group,omitempty"`
	Title     string    `json:"title"`
	ContentID string    `json:"content_id,omitempty"`
	Size      int64     `json:"size"`
	ModTime   time.Time `json:"mod_time"`
}

// LibraryResponse lists library entries.
type LibraryResponse struct {
	Entries []LibraryEntry `json:"entries"`
}

// NotificationType identifies a notification.
type NotificationType string

const (
	NotificationInitialState      NotificationType = "initial_state"
	NotificationTrackStarted      NotificationType = "track_started"
	NotificationTrackFailed       NotificationType = "track_failed"
	NotificationQueueEnded        NotificationType = "queue_ended"
	NotificationQueueCleared      NotificationType = "queue_cleared"
	NotificationPlayerError       NotificationType = "player_error"
	NotificationDownloadProgress  NotificationType = "download_progress"
	NotificationDownloadCompleted NotificationType = "download_completed"
	NotificationDownloadFailed    NotificationType = "download_failed"
)

// Notification is one server-streamed event.
type Notification struct {
	SequenceNo uint64           `json:"sequence_no"`
	Type       NotificationType `json:"type"`
	Time       time.Time        `json:"time"`
	Track      *Track           `json:"track,omitempty"`
	Index      int              `json:"index,omitempty"`
	Download   *DownloadTask    `json:"download,omitempty"`
	Status     *PlayerStatus    `json:"status,omitempty"`
	Message    string           `json:"message,omitempty"`
}
