package mpv

import (
	"github.com/mitchellh/mapstructure"
)

// Status is a point-in-time view of the player.
type Status struct {
	Paused   bool
	Position float64 // seconds
	Duration float64 // seconds
	Title    string
	Artist   string
	Volume   int // 0 to 100
	Idle     bool
}

// StoppedStatus is reported whenever the player cannot be queried.
func StoppedStatus() Status {
	return Status{
		Paused: true,
		Title:  "Stopped",
		Idle:   true,
	}
}

// Stopped reports whether nothing is loaded in the player.
func (s Status) Stopped() bool {
	return s.Idle
}

// metadata holds the tags mpv exposes through the "metadata" property.
type metadata struct {
	Title  string `mapstructure:"title"`
	Artist string `mapstructure:"artist"`
	Album  string `mapstructure:"album"`
}

// decodeMetadata converts the loosely typed metadata map. Unknown tags and
// decode errors are ignored.
func decodeMetadata(raw interface{}) metadata {
	var md metadata
	if raw == nil {
		return md
	}
	_ = mapstructure.WeakDecode(raw, &md)
	return md
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func toBool(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "yes" || b == "true"
	default:
		return false
	}
}

func clampVolume(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
