package playback

import "github.com/osa030/ytbeats/internal/domain/track"

// EventType represents a queue event type.
type EventType int

const (
	EventTrackStarted EventType = iota // Play command accepted for the track at the cursor
	EventTrackFailed                   // Play command failed for the track at the cursor
	EventQueueEnded                    // A track ended with nothing after it
	EventQueueCleared                  // Queue was cleared
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackFailed:
		return "track_failed"
	case EventQueueEnded:
		return "queue_ended"
	case EventQueueCleared:
		return "queue_cleared"
	default:
		return "unknown"
	}
}

// Event represents a queue event.
type Event struct {
	Type    EventType
	Track   *track.Track // Track at the cursor (nil for cleared)
	Index   int          // Cursor after the event
	State   State        // Queue state after the event
	Message string       // Failure detail
}

// EndReason is why the transport reported the end of a track.
type EndReason string

const (
	EndReasonEOF   EndReason = "eof"
	EndReasonError EndReason = "error"
)
