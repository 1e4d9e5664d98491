// Package playback provides the playback queue state machine.
package playback

// State represents the queue state.
type State int

const (
	StateEmpty     State = iota // Nothing selected (cursor before the first track)
	StateActive                 // A track is selected and more may follow
	StateExhausted              // The last track is selected
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateActive:
		return "active"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// stateOf derives the state from the cursor.
func stateOf(current, length int) State {
	switch {
	case current < 0 || length == 0:
		return StateEmpty
	case current == length-1:
		return StateExhausted
	default:
		return StateActive
	}
}

// ItemStatus is the display status of one queue entry.
type ItemStatus int

const (
	ItemPending  ItemStatus = iota // After the cursor
	ItemPlaying                    // At the cursor
	ItemFinished                   // Before the cursor
)

// String returns the string representation of the item status.
func (s ItemStatus) String() string {
	switch s {
	case ItemPending:
		return "pending"
	case ItemPlaying:
		return "playing"
	case ItemFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// ItemStatusAt returns the display status of index i given the cursor.
func ItemStatusAt(i, current int) ItemStatus {
	switch {
	case i < current:
		return ItemFinished
	case i == current:
		return ItemPlaying
	default:
		return ItemPending
	}
}
