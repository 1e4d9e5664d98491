// Package state provides session state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseStarting   Phase = iota // Components are being started
	PhaseActive                  // Playback and downloads available
	PhaseDegraded                // Playback engine unavailable; downloads and search only
	PhaseTerminated              // Session has ended
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseDegraded:
		return "degraded"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
