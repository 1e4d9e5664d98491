package session

import (
	"sync/atomic"
	"time"
)

// playTracker stamps each play command before it reaches the engine, so the
// status poller can tell a track that is still loading from an idle engine.
type playTracker struct {
	Player

	plays    atomic.Uint64
	lastPlay atomic.Int64 // unix nanos
	now      func() time.Time
}

func newPlayTracker(p Player) *playTracker {
	return &playTracker{Player: p, now: time.Now}
}

func (p *playTracker) Play(locator string) error {
	p.lastPlay.Store(p.now().UnixNano())
	p.plays.Add(1)
	return p.Player.Play(locator)
}

// generation returns the number of play commands issued so far.
func (p *playTracker) generation() uint64 {
	return p.plays.Load()
}

// loading reports whether a play command was issued after generation gen was
// read or within the last window.
func (p *playTracker) loading(gen uint64, window time.Duration) bool {
	if p.plays.Load() != gen {
		return true
	}
	last := p.lastPlay.Load()
	return last != 0 && p.now().Sub(time.Unix(0, last)) < window
}
