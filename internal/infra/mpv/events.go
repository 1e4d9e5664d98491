package mpv

import (
	"github.com/dexterlb/mpvipc"
	zlog "github.com/rs/zerolog/log"
)

// EndReason is why a track stopped playing.
type EndReason string

const (
	EndReasonEOF   EndReason = "eof"   // Normal completion
	EndReasonError EndReason = "error" // Stream or decode failure
)

const eventEndFile = "end-file"

// OnTrackEnded registers the callback invoked when a track completes or fails.
// It runs on the event listener goroutine and must not block.
func (c *Controller) OnTrackEnded(fn func(EndReason)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTrackEnded = fn
}

// OnError registers the callback invoked with a message when a stream fails.
// It runs on the event listener goroutine and must not block.
func (c *Controller) OnError(fn func(message string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// subscribe starts the dispatch goroutine on the connection's event stream.
func (c *Controller) subscribe() {
	events, stop := c.conn.NewEventListener()
	c.stopListener = stop
	go c.dispatch(events)
}

func (c *Controller) dispatch(events <-chan *mpvipc.Event) {
	defer close(c.dispatchDone)

	for ev := range events {
		c.handleEvent(ev)
	}

	c.mu.RLock()
	quitting := c.closed
	c.mu.RUnlock()
	if !quitting {
		zlog.Warn().Msg("mpv: event stream closed, player process is gone")
	}
}

// handleEvent applies the end-of-track policy:
// end-file inside the grace window is dropped; eof ends the track; error
// reports the failure and ends the track; any other reason is ignored.
func (c *Controller) handleEvent(ev *mpvipc.Event) {
	if ev == nil || ev.Name != eventEndFile {
		return
	}

	c.mu.RLock()
	inGrace := c.now().Before(c.graceDeadline)
	locator := c.current
	onEnded := c.onTrackEnded
	onError := c.onError
	c.mu.RUnlock()

	reason := EndReason(ev.Reason)
	if inGrace {
		// A track shorter than the grace window also lands here; its end is lost.
		if reason == EndReasonEOF || reason == EndReasonError {
			zlog.Warn().Msgf("mpv: end-file inside grace window discarded: reason=%s locator=%s", reason, locator)
		} else {
			zlog.Debug().Msgf("mpv: end-file inside grace window discarded: reason=%s", reason)
		}
		return
	}

	switch reason {
	case EndReasonEOF:
		zlog.Debug().Msgf("mpv: track ended: locator=%s", locator)
		if onEnded != nil {
			onEnded(EndReasonEOF)
		}
	case EndReasonError:
		zlog.Warn().Msgf("mpv: playback failed: locator=%s", locator)
		if onError != nil {
			onError("playback failed: " + locator)
		}
		if onEnded != nil {
			onEnded(EndReasonError)
		}
	default:
		zlog.Debug().Msgf("mpv: end-file ignored: reason=%s", ev.Reason)
	}
}
