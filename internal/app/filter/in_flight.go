package filter

import (
	"context"

	"github.com/osa030/ytbeats/internal/domain/download"
)

// CodeAlreadyQueued is returned when an equal content ID is pending or downloading.
const CodeAlreadyQueued = "already_queued"

// TaskSource lists download tasks.
type TaskSource interface {
	Tasks() []download.Snapshot
}

// InFlightFilter rejects content that is already pending or downloading.
// Finished tasks do not count; a failed download may be requested again.
type InFlightFilter struct {
	tasks TaskSource
}

// NewInFlightFilter creates a new in-flight filter.
func NewInFlightFilter(tasks TaskSource) *InFlightFilter {
	return &InFlightFilter{
		tasks: tasks,
	}
}

// Name returns the filter name.
func (f *InFlightFilter) Name() string {
	return "in_flight_filter"
}

// ReturnCodes returns possible return codes.
func (f *InFlightFilter) ReturnCodes() []string {
	return []string{CodeAlreadyQueued}
}

// Check performs the in-flight check.
func (f *InFlightFilter) Check(ctx context.Context, c Candidate) Result {
	if c.ContentID == "" {
		return Accept()
	}
	for _, t := range f.tasks.Tasks() {
		if t.ContentID == c.ContentID && t.Status.IsActive() {
			return Reject(CodeAlreadyQueued, t.ID)
		}
	}
	return Accept()
}
