package download

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition is returned when a status change would break the
	// Pending -> Downloading -> {Completed | Failed} ordering.
	ErrInvalidTransition = errors.New("invalid task status transition")
	// ErrDuplicate is returned when the content is already downloaded or queued.
	ErrDuplicate = errors.New("content already downloaded or queued")
	// ErrConversionToolMissing is returned when the audio conversion tool is not installed.
	ErrConversionToolMissing = errors.New("audio conversion tool is not installed")
)

// Progress is a progress report from the retrieval utility.
type Progress struct {
	Percent float64       // 0 to 100
	Speed   float64       // bytes per second, 0 if unknown
	ETA     time.Duration // 0 if unknown
	Title   string        // resolved title, empty until known
}

// FetchRequest describes one retrieval and conversion job.
type FetchRequest struct {
	Locator   string
	Dir       string // destination directory, already created
	ContentID string
}

// Task represents one unit of download and conversion work.
// Mutators are called only by the pipeline worker; readers use Snapshot.
type Task struct {
	mu sync.RWMutex

	id         string
	locator    string
	title      string
	contentID  string
	group      string
	status     Status
	progress   Progress
	err        string
	finalPath  string
	createdAt  time.Time
	startedAt  time.Time
	finishedAt time.Time
}

// Snapshot is a point-in-time copy of a task.
type Snapshot struct {
	ID         string
	Locator    string
	Title      string
	ContentID  string
	Group      string
	Status     Status
	Progress   float64
	Speed      float64
	ETA        time.Duration
	Error      string
	FinalPath  string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewTask creates a pending task.
func NewTask(locator, title, contentID, group string) *Task {
	return &Task{
		id:        uuid.New().String(),
		locator:   locator,
		title:     title,
		contentID: contentID,
		group:     group,
		status:    StatusPending,
		createdAt: time.Now(),
	}
}

// ID returns the task ID.
func (t *Task) ID() string { return t.id }

// Locator returns the locator the task downloads.
func (t *Task) Locator() string { return t.locator }

// ContentID returns the content identifier, or "" if unknown.
func (t *Task) ContentID() string { return t.contentID }

// Group returns the destination group, or "" for the top-level directory.
func (t *Task) Group() string { return t.group }

// Status returns the current status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Start moves the task to Downloading.
func (t *Task) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.transitionLocked(StatusDownloading); err != nil {
		return err
	}
	t.startedAt = time.Now()
	return nil
}

// UpdateProgress records a progress report.
// Percent is clamped to [0,100] and never decreases. Returns false if the
// report was ignored because the task is not downloading.
func (t *Task) UpdateProgress(p Progress) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusDownloading {
		return false
	}

	pct := clamp(p.Percent)
	if pct < t.progress.Percent {
		pct = t.progress.Percent
	}
	t.progress = Progress{Percent: pct, Speed: p.Speed, ETA: p.ETA}
	if p.Title != "" {
		t.title = p.Title
	}
	return true
}

// Complete marks the task Completed at 100% with its final path.
func (t *Task) Complete(finalPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.transitionLocked(StatusCompleted); err != nil {
		return err
	}
	t.progress = Progress{Percent: 100}
	t.finalPath = finalPath
	t.finishedAt = time.Now()
	return nil
}

// Fail marks the task Failed with a message.
func (t *Task) Fail(message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.transitionLocked(StatusFailed); err != nil {
		return err
	}
	t.err = message
	t.progress.Speed = 0
	t.progress.ETA = 0
	t.finishedAt = time.Now()
	return nil
}

// Snapshot returns a consistent copy of the task.
func (t *Task) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		ID:         t.id,
		Locator:    t.locator,
		Title:      t.title,
		ContentID:  t.contentID,
		Group:      t.group,
		Status:     t.status,
		Progress:   t.progress.Percent,
		Speed:      t.progress.Speed,
		ETA:        t.progress.ETA,
		Error:      t.err,
		FinalPath:  t.finalPath,
		CreatedAt:  t.createdAt,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

func (t *Task) transitionLocked(to Status) error {
	if !canTransition(t.status, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", t.status, to)
	}
	t.status = to
	return nil
}

func clamp(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
