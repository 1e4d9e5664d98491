package mpv

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dexterlb/mpvipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records calls and serves properties from a map.
type fakeConn struct {
	mu       sync.Mutex
	props    map[string]interface{}
	calls    [][]interface{}
	sets     map[string]interface{}
	failAll  bool
	failGet  map[string]bool
	closed   bool
	events   chan *mpvipc.Event
	panicOn  string
	listened bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		props: map[string]interface{}{
			"idle-active": false,
			"pause":       false,
			"volume":      80.0,
			"time-pos":    12.5,
			"duration":    200.0,
			"media-title": "Song",
		},
		sets:    map[string]interface{}{},
		failGet: map[string]bool{},
		events:  make(chan *mpvipc.Event, 8),
	}
}

func (f *fakeConn) Open() error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) IsClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeConn) Call(args ...interface{}) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(args) > 0 && args[0] == f.panicOn {
		panic("broken pipe")
	}
	f.calls = append(f.calls, args)
	if f.failAll {
		return nil, errors.New("connection reset")
	}
	return nil, nil
}

func (f *fakeConn) Get(property string) (interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll || f.failGet[property] {
		return nil, errors.New("property unavailable")
	}
	return f.props[property], nil
}

func (f *fakeConn) Set(property string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("connection reset")
	}
	f.sets[property] = value
	f.props[property] = value
	return nil
}

func (f *fakeConn) NewEventListener() (chan *mpvipc.Event, chan struct{}) {
	f.mu.Lock()
	f.listened = true
	f.mu.Unlock()

	stop := make(chan struct{})
	go func() {
		<-stop
		close(f.events)
	}()
	return f.events, stop
}

func (f *fakeConn) callNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		names = append(names, fmt.Sprint(c[0]))
	}
	return names
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestController(t *testing.T) (*Controller, *fakeConn, *clock) {
	t.Helper()
	fc := newFakeConn()
	clk := &clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newController(Config{GraceWindow: 3 * time.Second, InitialVolume: 100}, fc)
	c.now = clk.Now
	return c, fc, clk
}

func TestController_EndFilePolicy(t *testing.T) {
	tests := []struct {
		name      string
		advance   time.Duration
		reason    string
		wantEnded []EndReason
		wantError bool
	}{
		{name: "eof inside grace window", advance: time.Second, reason: "eof"},
		{name: "error inside grace window", advance: 2 * time.Second, reason: "error"},
		{name: "eof after grace window", advance: 4 * time.Second, reason: "eof", wantEnded: []EndReason{EndReasonEOF}},
		{name: "error after grace window", advance: 4 * time.Second, reason: "error", wantEnded: []EndReason{EndReasonError}, wantError: true},
		{name: "stop reason ignored", advance: 4 * time.Second, reason: "stop"},
		{name: "quit reason ignored", advance: 4 * time.Second, reason: "quit"},
		{name: "redirect reason ignored", advance: 4 * time.Second, reason: "redirect"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, clk := newTestController(t)

			var ended []EndReason
			var messages []string
			c.OnTrackEnded(func(r EndReason) { ended = append(ended, r) })
			c.OnError(func(m string) { messages = append(messages, m) })

			require.NoError(t, c.Play("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
			clk.Advance(tt.advance)
			c.handleEvent(&mpvipc.Event{Name: eventEndFile, Reason: tt.reason})

			assert.Equal(t, tt.wantEnded, ended)
			if tt.wantError {
				require.Len(t, messages, 1)
				assert.Contains(t, messages[0], "dQw4w9WgXcQ")
			} else {
				assert.Empty(t, messages)
			}
		})
	}
}

func TestController_IgnoresOtherEvents(t *testing.T) {
	c, _, clk := newTestController(t)
	called := false
	c.OnTrackEnded(func(EndReason) { called = true })

	clk.Advance(time.Minute)
	c.handleEvent(&mpvipc.Event{Name: "pause"})
	c.handleEvent(nil)

	assert.False(t, called)
}

func TestController_Play(t *testing.T) {
	c, fc, _ := newTestController(t)

	require.NoError(t, c.Play("/music/song.mp3"))
	require.Len(t, fc.calls, 1)
	assert.Equal(t, []interface{}{"loadfile", "/music/song.mp3", "replace"}, fc.calls[0])

	fc.failAll = true
	assert.Error(t, c.Play("/music/other.mp3"))
}

func TestController_BestEffortOperations(t *testing.T) {
	c, fc, _ := newTestController(t)
	fc.failAll = true

	assert.NotPanics(t, func() {
		c.Pause()
		c.Stop()
		c.SetVolume(30)
	})

	fc.failAll = false
	fc.panicOn = "stop"
	assert.NotPanics(t, c.Stop)

	fc.panicOn = ""
	c.Pause()
	assert.Contains(t, fc.callNames(), "cycle")
}

func TestController_Volume(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		delta   int
		want    int
	}{
		{name: "increase", current: 50, delta: 10, want: 60},
		{name: "decrease", current: 50, delta: -20, want: 30},
		{name: "clamp high", current: 95, delta: 10, want: 100},
		{name: "clamp low", current: 5, delta: -10, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, fc, _ := newTestController(t)
			fc.props["volume"] = tt.current

			got := c.ChangeVolume(tt.delta)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, float64(tt.want), fc.sets["volume"])
		})
	}

	t.Run("set clamps", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		c.SetVolume(150)
		assert.Equal(t, 100.0, fc.sets["volume"])
		c.SetVolume(-5)
		assert.Equal(t, 0.0, fc.sets["volume"])
	})

	t.Run("cached volume when query fails", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		c.SetVolume(40)
		fc.failGet["volume"] = true
		assert.Equal(t, 45, c.ChangeVolume(5))
	})
}

func TestController_Status(t *testing.T) {
	t.Run("playing", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		fc.props["metadata"] = map[string]interface{}{"artist": "Band", "title": "Tag Title"}

		st := c.Status()
		assert.False(t, st.Paused)
		assert.False(t, st.Idle)
		assert.Equal(t, 12.5, st.Position)
		assert.Equal(t, 200.0, st.Duration)
		assert.Equal(t, "Song", st.Title)
		assert.Equal(t, "Band", st.Artist)
		assert.Equal(t, 80, st.Volume)
	})

	t.Run("idle", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		fc.props["idle-active"] = true

		st := c.Status()
		assert.True(t, st.Idle)
		assert.True(t, st.Stopped())
		assert.Equal(t, "Stopped", st.Title)
		assert.Equal(t, 80, st.Volume)
	})

	t.Run("optional properties missing", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		fc.failGet["time-pos"] = true
		fc.failGet["duration"] = true

		st := c.Status()
		assert.Zero(t, st.Position)
		assert.Zero(t, st.Duration)
		assert.Equal(t, "Song", st.Title)
	})

	t.Run("required property missing", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		fc.failGet["pause"] = true
		assert.Equal(t, StoppedStatus(), c.Status())
	})

	t.Run("connection failed", func(t *testing.T) {
		c, fc, _ := newTestController(t)
		fc.failAll = true
		assert.Equal(t, StoppedStatus(), c.Status())
	})
}

func TestController_Quit(t *testing.T) {
	c, fc, _ := newTestController(t)
	c.subscribe()

	c.Quit()
	c.Quit()

	assert.True(t, fc.IsClosed())
	assert.Contains(t, fc.callNames(), "quit")
	assert.Equal(t, StoppedStatus(), c.Status())
	assert.ErrorIs(t, c.Play("/music/song.mp3"), ErrNotConnected)
	assert.NotPanics(t, func() {
		c.Pause()
		c.SetVolume(10)
	})

	select {
	case <-c.dispatchDone:
	case <-time.After(time.Second):
		t.Fatal("event dispatcher did not stop")
	}
}

// stalledConn accepts commands and never answers them.
type stalledConn struct {
	*fakeConn
	release chan struct{}
}

func newStalledConn(t *testing.T) *stalledConn {
	sc := &stalledConn{fakeConn: newFakeConn(), release: make(chan struct{})}
	t.Cleanup(func() { close(sc.release) })
	return sc
}

func (s *stalledConn) Call(...interface{}) (interface{}, error) {
	<-s.release
	return nil, errors.New("released")
}

func (s *stalledConn) Get(string) (interface{}, error) {
	<-s.release
	return nil, errors.New("released")
}

func (s *stalledConn) Set(string, interface{}) error {
	<-s.release
	return errors.New("released")
}

func TestController_StalledPlayer(t *testing.T) {
	t.Run("calls time out", func(t *testing.T) {
		c := newController(Config{CallTimeout: 50 * time.Millisecond, InitialVolume: 40}, newStalledConn(t))

		start := time.Now()
		assert.Equal(t, StoppedStatus(), c.Status())
		assert.ErrorIs(t, c.Play("/music/song.mp3"), ErrCallTimeout)
		assert.Equal(t, 45, c.ChangeVolume(5))
		c.Pause()
		c.Stop()
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("player exit releases caller", func(t *testing.T) {
		c := newController(Config{CallTimeout: time.Minute}, newStalledConn(t))
		exited := make(chan struct{})
		c.exited = exited
		close(exited)

		assert.ErrorIs(t, c.Play("/music/song.mp3"), ErrNotConnected)
		assert.Equal(t, StoppedStatus(), c.Status())
	})

	t.Run("quit does not wait for a reply", func(t *testing.T) {
		sc := newStalledConn(t)
		c := newController(Config{CallTimeout: 50 * time.Millisecond}, sc)

		done := make(chan struct{})
		go func() {
			c.Quit()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("quit blocked on an unanswered command")
		}
		assert.True(t, sc.IsClosed())
	})
}

func TestController_StatusAfterChannelDrops(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix sockets only")
	}

	// short path: unix socket names are limited to ~100 bytes
	dir, err := os.MkdirTemp("", "mpv")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	address := filepath.Join(dir, "mpv.sock")

	ln, err := net.Listen("unix", address)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	// a player that reads one command and goes away without replying
	go func() {
		peer, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = bufio.NewReader(peer).ReadString('\n')
		_ = peer.Close()
	}()

	cn, err := dialIPC(address)
	require.NoError(t, err)
	c := newController(Config{CallTimeout: 200 * time.Millisecond}, cn)

	got := make(chan Status, 1)
	go func() { got <- c.Status() }()

	select {
	case st := <-got:
		assert.Equal(t, StoppedStatus(), st)
	case <-time.After(3 * time.Second):
		t.Fatal("status blocked after the control channel dropped")
	}

	assert.Eventually(t, cn.IsClosed, time.Second, 10*time.Millisecond)
	assert.Equal(t, StoppedStatus(), c.Status())
	assert.NotPanics(t, c.Quit)
}

func TestConnect(t *testing.T) {
	t.Run("retries until ready", func(t *testing.T) {
		attempts := 0
		dial := func(string) (conn, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("connection refused")
			}
			return newFakeConn(), nil
		}

		cn, err := connect(context.Background(), dial, "sock", time.Millisecond, time.Second, nil)
		require.NoError(t, err)
		assert.NotNil(t, cn)
		assert.Equal(t, 3, attempts)
	})

	t.Run("times out", func(t *testing.T) {
		dial := func(string) (conn, error) { return nil, errors.New("connection refused") }

		_, err := connect(context.Background(), dial, "sock", 5*time.Millisecond, 30*time.Millisecond, nil)
		assert.ErrorIs(t, err, ErrConnectTimeout)
	})

	t.Run("process exited", func(t *testing.T) {
		exited := make(chan struct{})
		close(exited)
		dial := func(string) (conn, error) { return nil, errors.New("connection refused") }

		_, err := connect(context.Background(), dial, "sock", time.Second, time.Minute, exited)
		assert.ErrorIs(t, err, ErrConnectTimeout)
	})
}

func TestBuildArgs(t *testing.T) {
	args := buildArgs("/run/mpv-1.sock", "/usr/bin/yt-dlp", 70)
	assert.Contains(t, args, "--idle=yes")
	assert.Contains(t, args, "--no-video")
	assert.Contains(t, args, "--input-ipc-server=/run/mpv-1.sock")
	assert.Contains(t, args, "--volume=70")
	assert.Contains(t, args, "--script-opts=ytdl_hook-ytdl_path=/usr/bin/yt-dlp")

	args = buildArgs("/run/mpv-1.sock", "", 70)
	for _, a := range args {
		assert.NotContains(t, a, "script-opts")
	}
}

func TestChannelAddress(t *testing.T) {
	addr := channelAddress("/run/ytbeats", "abc")
	if isPipe(addr) {
		assert.Equal(t, `\\.\pipe\ytbeats-mpv-abc`, addr)
		return
	}
	assert.Equal(t, filepath.Join("/run/ytbeats", "mpv-abc.sock"), addr)
}

func TestNew_MissingBinary(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	t.Setenv("ProgramData", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := New(context.Background(), Config{
		Binary:     "mpv-does-not-exist",
		RuntimeDir: t.TempDir(),
	})
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestNew_PlayerExitsEarly(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("requires /bin/sh")
	}
	bin := filepath.Join(t.TempDir(), "mpv")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	runtimeDir := t.TempDir()

	_, err := New(context.Background(), Config{
		Binary:          bin,
		YtdlPath:        "yt-dlp-does-not-exist",
		RuntimeDir:      runtimeDir,
		ConnectTimeout:  2 * time.Second,
		ConnectInterval: 10 * time.Millisecond,
	})
	assert.ErrorIs(t, err, ErrConnectTimeout)

	matches, err := filepath.Glob(filepath.Join(runtimeDir, "*.pid"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
