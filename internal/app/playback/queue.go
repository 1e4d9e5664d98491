package playback

import (
	"context"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/domain/track"
)

// Errors
var (
	ErrEndOfQueue = errors.New("no next track")
	ErrAtStart    = errors.New("no previous track")
	ErrClosed     = errors.New("playback queue is closed")
)

const (
	endedBufferSize = 16
	eventBufferSize = 32
)

// Player is the transport the queue drives.
type Player interface {
	Play(locator string) error
	Stop()
}

// Item is one queue entry with its display status.
type Item struct {
	Track  track.Track
	Status ItemStatus
}

// Snapshot is a point-in-time copy of the queue.
type Snapshot struct {
	Items   []Item
	Current int // -1 when nothing is selected
	State   State
}

// Tracks returns the tracks of the snapshot in order.
func (s Snapshot) Tracks() []track.Track {
	tracks := make([]track.Track, len(s.Items))
	for i, it := range s.Items {
		tracks[i] = it.Track
	}
	return tracks
}

// Queue is the playback queue state machine. All transitions run on the
// goroutine executing Run; other goroutines post operations to it.
type Queue struct {
	player Player

	// owned by the Run goroutine
	tracks  []track.Track
	current int

	stopped atomic.Bool // last known transport status

	ops     chan func()
	ended   chan EndReason
	eventCh chan Event
	done    chan struct{}
}

// NewQueue creates an empty queue driving player.
func NewQueue(player Player) *Queue {
	return &Queue{
		player:  player,
		current: -1,
		ops:     make(chan func()),
		ended:   make(chan EndReason, endedBufferSize),
		eventCh: make(chan Event, eventBufferSize),
		done:    make(chan struct{}),
	}
}

// Events returns the event channel.
func (q *Queue) Events() <-chan Event {
	return q.eventCh
}

// Run executes queue operations and track-end hand-offs until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	defer close(q.done)
	zlog.Debug().Msg("playback: queue loop started")

	for {
		select {
		case <-ctx.Done():
			zlog.Debug().Msg("playback: queue loop stopped")
			return
		case fn := <-q.ops:
			q.safely(fn)
		case reason := <-q.ended:
			q.safely(func() { q.handleEnded(reason) })
		}
	}
}

// Enqueue appends tracks. If nothing is selected or the transport is
// stopped, playback advances to the next track immediately.
func (q *Queue) Enqueue(ctx context.Context, tracks ...track.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	return q.do(ctx, func() error {
		q.tracks = append(q.tracks, tracks...)
		zlog.Debug().Msgf("playback: enqueued: count=%d total=%d", len(tracks), len(q.tracks))

		if q.current == -1 || q.stopped.Load() {
			if err := q.next(); err != nil && !errors.Is(err, ErrEndOfQueue) {
				return err
			}
		}
		return nil
	})
}

// Next advances to and plays the next track. Returns ErrEndOfQueue without
// changing anything when the cursor is on the last track.
func (q *Queue) Next(ctx context.Context) error {
	return q.do(ctx, q.next)
}

// Previous moves back to and plays the previous track. Returns ErrAtStart
// without changing anything when the cursor is on the first track.
func (q *Queue) Previous(ctx context.Context) error {
	return q.do(ctx, func() error {
		if q.current <= 0 {
			return ErrAtStart
		}
		q.current--
		return q.playCurrent()
	})
}

// Clear empties the queue and stops the transport.
func (q *Queue) Clear(ctx context.Context) error {
	return q.do(ctx, func() error {
		q.clear()
		return nil
	})
}

// ReplaceAll clears the queue, appends tracks and starts the first one.
// An empty list behaves as Clear.
func (q *Queue) ReplaceAll(ctx context.Context, tracks []track.Track) error {
	return q.do(ctx, func() error {
		q.clear()
		if len(tracks) == 0 {
			return nil
		}
		q.tracks = append(q.tracks, tracks...)
		return q.next()
	})
}

// Snapshot returns a copy of the queue.
func (q *Queue) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := q.do(ctx, func() error {
		snap = q.snapshot()
		return nil
	})
	return snap, err
}

// TrackEnded hands a track-end event to the queue loop. It never blocks and
// is safe to call from the transport's event goroutine.
func (q *Queue) TrackEnded(reason EndReason) {
	select {
	case q.ended <- reason:
	default:
		zlog.Warn().Msgf("playback: track-end event dropped, queue loop is busy: reason=%s", reason)
	}
}

// ObserveStopped records whether the transport last reported itself stopped.
func (q *Queue) ObserveStopped(stopped bool) {
	q.stopped.Store(stopped)
}

// do posts fn to the queue loop and waits for its result.
func (q *Queue) do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	op := func() { result <- fn() }

	select {
	case q.ops <- op:
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback: panic in queue loop: panic=%v", r)
		}
	}()
	fn()
}

func (q *Queue) handleEnded(reason EndReason) {
	zlog.Debug().Msgf("playback: track ended: reason=%s index=%d", reason, q.current)

	err := q.next()
	if errors.Is(err, ErrEndOfQueue) {
		q.stopped.Store(true)
		q.sendEvent(Event{Type: EventQueueEnded, Index: q.current, State: stateOf(q.current, len(q.tracks))})
		return
	}
	if err != nil {
		zlog.Warn().Msgf("playback: auto-advance failed: error=%v", err)
	}
}

func (q *Queue) next() error {
	if q.current+1 >= len(q.tracks) {
		return ErrEndOfQueue
	}
	q.current++
	return q.playCurrent()
}

// playCurrent plays the track at the cursor. On failure the cursor stays.
func (q *Queue) playCurrent() error {
	t := q.tracks[q.current]
	q.stopped.Store(false)

	if err := q.player.Play(t.Locator); err != nil {
		zlog.Warn().Msgf("playback: play failed: index=%d locator=%s error=%v", q.current, t.Locator, err)
		q.sendEvent(Event{
			Type:    EventTrackFailed,
			Track:   &t,
			Index:   q.current,
			State:   stateOf(q.current, len(q.tracks)),
			Message: err.Error(),
		})
		return errors.Wrapf(err, "failed to play %s", t.Title)
	}

	zlog.Info().Msgf("playback: playing: index=%d title=%s", q.current, t.Title)
	q.sendEvent(Event{
		Type:  EventTrackStarted,
		Track: &t,
		Index: q.current,
		State: stateOf(q.current, len(q.tracks)),
	})
	return nil
}

func (q *Queue) clear() {
	q.tracks = nil
	q.current = -1
	q.player.Stop()
	q.sendEvent(Event{Type: EventQueueCleared, Index: -1, State: StateEmpty})
}

func (q *Queue) snapshot() Snapshot {
	items := make([]Item, len(q.tracks))
	for i, t := range q.tracks {
		items[i] = Item{Track: t, Status: ItemStatusAt(i, q.current)}
	}
	return Snapshot{
		Items:   items,
		Current: q.current,
		State:   stateOf(q.current, len(q.tracks)),
	}
}

// sendEvent sends an event without blocking.
func (q *Queue) sendEvent(e Event) {
	select {
	case q.eventCh <- e:
	default:
		// Channel full, drop event
	}
}
