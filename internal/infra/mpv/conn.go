package mpv

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dexterlb/mpvipc"
)

// conn is the subset of *mpvipc.Connection the controller uses.
type conn interface {
	Open() error
	Close() error
	IsClosed() bool
	Call(arguments ...interface{}) (interface{}, error)
	Get(property string) (interface{}, error)
	Set(property string, value interface{}) error
	NewEventListener() (chan *mpvipc.Event, chan struct{})
}

var _ conn = (*mpvipc.Connection)(nil)

// dialFunc opens a control channel connection.
type dialFunc func(address string) (conn, error)

func dialIPC(address string) (conn, error) {
	c := mpvipc.NewConnection(address)
	if err := c.Open(); err != nil {
		return nil, err
	}
	return c, nil
}

// channelAddress returns a control channel address unique to id: a named
// pipe on Windows, a unix socket inside dir elsewhere.
func channelAddress(dir, id string) string {
	if runtime.GOOS == "windows" {
		return `\\.\pipe\ytbeats-mpv-` + id
	}
	return filepath.Join(dir, "mpv-"+id+".sock")
}

// isPipe reports whether the address has no filesystem artifact.
func isPipe(address string) bool {
	return strings.HasPrefix(address, `\\.\pipe\`)
}

// connect polls dial every interval until it succeeds, the process exits or
// timeout elapses.
func connect(ctx context.Context, dial dialFunc, address string, interval, timeout time.Duration, exited <-chan struct{}) (conn, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		c, err := dial(address)
		if err == nil {
			return c, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-exited:
			return nil, errors.Wrap(ErrConnectTimeout, "player exited before the control channel was ready")
		case <-deadline.C:
			return nil, errors.Wrapf(ErrConnectTimeout, "after %v: %v", timeout, lastErr)
		case <-ticker.C:
		}
	}
}
