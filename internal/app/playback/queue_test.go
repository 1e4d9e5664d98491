package playback

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/ytbeats/internal/domain/track"
)

type mockPlayer struct {
	mu      sync.Mutex
	played  []string
	stops   int
	failFor map[string]bool
}

func (m *mockPlayer) Play(locator string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.played = append(m.played, locator)
	if m.failFor[locator] {
		return errors.New("loadfile failed")
	}
	return nil
}

func (m *mockPlayer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
}

func (m *mockPlayer) Played() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

func (m *mockPlayer) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

func startQueue(t *testing.T) (*Queue, *mockPlayer) {
	t.Helper()
	p := &mockPlayer{failFor: map[string]bool{}}
	q := NewQueue(p)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go q.Run(ctx)
	return q, p
}

func tracks(names ...string) []track.Track {
	out := make([]track.Track, len(names))
	for i, n := range names {
		out[i] = track.NewStreaming(n, "loc:"+n)
	}
	return out
}

func snapshot(t *testing.T, q *Queue) Snapshot {
	t.Helper()
	s, err := q.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestQueue_EnqueueIntoEmptyStartsPlayback(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, tracks("a")...))
	assert.Equal(t, []string{"loc:a"}, p.Played())

	s := snapshot(t, q)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, StateExhausted, s.State)

	// playing: enqueue only appends
	require.NoError(t, q.Enqueue(ctx, tracks("b", "c")...))
	assert.Equal(t, []string{"loc:a"}, p.Played())
	s = snapshot(t, q)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, StateActive, s.State)
	assert.Len(t, s.Items, 3)
}

func TestQueue_EnqueueWhileStoppedAdvances(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, tracks("a")...))
	q.ObserveStopped(true)
	require.NoError(t, q.Enqueue(ctx, tracks("b")...))

	assert.Equal(t, []string{"loc:a", "loc:b"}, p.Played())
	assert.Equal(t, 1, snapshot(t, q).Current)
}

func TestQueue_NextPrevious(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()

	assert.ErrorIs(t, q.Next(ctx), ErrEndOfQueue)
	assert.ErrorIs(t, q.Previous(ctx), ErrAtStart)

	require.NoError(t, q.Enqueue(ctx, tracks("a", "b")...))
	assert.ErrorIs(t, q.Previous(ctx), ErrAtStart)
	assert.Equal(t, 0, snapshot(t, q).Current)

	require.NoError(t, q.Next(ctx))
	assert.Equal(t, 1, snapshot(t, q).Current)

	assert.ErrorIs(t, q.Next(ctx), ErrEndOfQueue)
	assert.Equal(t, 1, snapshot(t, q).Current)

	require.NoError(t, q.Previous(ctx))
	assert.Equal(t, 0, snapshot(t, q).Current)
	assert.Equal(t, []string{"loc:a", "loc:b", "loc:a"}, p.Played())
}

func TestQueue_ClearAndReplaceAll(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, tracks("a", "b")...))
	require.NoError(t, q.Clear(ctx))

	s := snapshot(t, q)
	assert.Equal(t, -1, s.Current)
	assert.Empty(t, s.Items)
	assert.Equal(t, StateEmpty, s.State)
	assert.Equal(t, 1, p.Stops())

	require.NoError(t, q.ReplaceAll(ctx, tracks("x", "y", "z")))
	s = snapshot(t, q)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, "x", s.Items[0].Track.Title)
	assert.Equal(t, "loc:x", p.Played()[len(p.Played())-1])

	require.NoError(t, q.ReplaceAll(ctx, nil))
	assert.Equal(t, StateEmpty, snapshot(t, q).State)
	assert.Equal(t, 3, p.Stops())
}

func TestQueue_TrackEndedAdvances(t *testing.T) {
	tests := []struct {
		name   string
		reason EndReason
	}{
		{name: "eof", reason: EndReasonEOF},
		{name: "error", reason: EndReasonError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, p := startQueue(t)
			ctx := context.Background()
			require.NoError(t, q.Enqueue(ctx, tracks("a", "b")...))

			q.TrackEnded(tt.reason)
			assert.Eventually(t, func() bool {
				return snapshot(t, q).Current == 1
			}, time.Second, 5*time.Millisecond)
			assert.Equal(t, []string{"loc:a", "loc:b"}, p.Played())
		})
	}
}

func TestQueue_TrackEndedAtEnd(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, tracks("a")...))

	q.TrackEnded(EndReasonEOF)

	var ended bool
	deadline := time.After(time.Second)
	for !ended {
		select {
		case e := <-q.Events():
			ended = e.Type == EventQueueEnded
		case <-deadline:
			t.Fatal("queue_ended not emitted")
		}
	}
	assert.Equal(t, 0, snapshot(t, q).Current)

	// the transport is idle now; a new track plays immediately
	require.NoError(t, q.Enqueue(ctx, tracks("b")...))
	assert.Equal(t, []string{"loc:a", "loc:b"}, p.Played())
}

func TestQueue_PlayFailureKeepsCursor(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()
	p.failFor["loc:b"] = true

	require.NoError(t, q.Enqueue(ctx, tracks("a", "b", "c")...))
	err := q.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, snapshot(t, q).Current)

	var failed bool
	for !failed {
		select {
		case e := <-q.Events():
			if e.Type == EventTrackFailed {
				failed = true
				assert.Equal(t, "b", e.Track.Title)
			}
		case <-time.After(time.Second):
			t.Fatal("track_failed not emitted")
		}
	}

	require.NoError(t, q.Next(ctx))
	assert.Equal(t, 2, snapshot(t, q).Current)
}

func TestQueue_SnapshotItemStatus(t *testing.T) {
	q, _ := startQueue(t)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, tracks("a", "b", "c")...))
	require.NoError(t, q.Next(ctx))

	s := snapshot(t, q)
	got := make([]ItemStatus, len(s.Items))
	for i, it := range s.Items {
		got[i] = it.Status
	}
	assert.Equal(t, []ItemStatus{ItemFinished, ItemPlaying, ItemPending}, got)
	assert.Len(t, s.Tracks(), 3)
}

func TestQueue_RandomOperationsKeepCursorInBounds(t *testing.T) {
	q, p := startQueue(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		switch rng.Intn(7) {
		case 0:
			_ = q.Enqueue(ctx, tracks(fmt.Sprintf("t%d", i))...)
		case 1:
			_ = q.Next(ctx)
		case 2:
			_ = q.Previous(ctx)
		case 3:
			if rng.Intn(4) == 0 {
				_ = q.Clear(ctx)
			}
		case 4:
			_ = q.ReplaceAll(ctx, tracks("r1", "r2")[:rng.Intn(3)])
		case 5:
			q.TrackEnded(EndReasonEOF)
		case 6:
			p.mu.Lock()
			p.failFor[fmt.Sprintf("loc:t%d", rng.Intn(i+1))] = true
			p.mu.Unlock()
		}

		s := snapshot(t, q)
		require.GreaterOrEqual(t, s.Current, -1)
		require.Less(t, s.Current, len(s.Items)+boolToInt(len(s.Items) == 0))
		if len(s.Items) == 0 {
			require.Equal(t, -1, s.Current)
			require.Equal(t, StateEmpty, s.State)
		}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestQueue_ClosedAndCancelled(t *testing.T) {
	q := NewQueue(&mockPlayer{})
	ctx, cancel := context.WithCancel(context.Background())
	go q.Run(ctx)
	cancel()
	<-q.done

	assert.ErrorIs(t, q.Next(context.Background()), ErrClosed)

	idle := NewQueue(&mockPlayer{})
	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()
	assert.ErrorIs(t, idle.Next(short), context.DeadlineExceeded)
}

func TestItemStatusAt(t *testing.T) {
	tests := []struct {
		i, current int
		want       ItemStatus
	}{
		{0, -1, ItemPending},
		{0, 0, ItemPlaying},
		{0, 1, ItemFinished},
		{2, 1, ItemPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ItemStatusAt(tt.i, tt.current))
	}
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateEmpty, stateOf(-1, 0))
	assert.Equal(t, StateEmpty, stateOf(-1, 3))
	assert.Equal(t, StateActive, stateOf(0, 3))
	assert.Equal(t, StateExhausted, stateOf(2, 3))
	assert.Equal(t, "exhausted", StateExhausted.String())
	assert.Equal(t, "track_failed", EventTrackFailed.String())
}
