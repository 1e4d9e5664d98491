// Package download provides the download task domain entity.
package download

// Status represents the status of a download task.
type Status string

const (
	// StatusPending means the task is queued but not started.
	StatusPending Status = "pending"

	// StatusDownloading means the worker is fetching and converting the track.
	StatusDownloading Status = "downloading"

	// StatusCompleted means the file was written to the destination directory.
	StatusCompleted Status = "completed"

	// StatusFailed means the task ended with an error.
	StatusFailed Status = "failed"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// IsActive returns true if the task has not reached a terminal state.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusDownloading
}

// IsFinished returns true if the task is in a terminal state.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusFailed
}

// canTransition reports whether from -> to is allowed.
// Pending -> Downloading -> {Completed | Failed}; terminal states are final.
func canTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusDownloading
	case StatusDownloading:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}
