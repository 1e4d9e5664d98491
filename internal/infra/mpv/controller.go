// Package mpv drives one external mpv process over its JSON IPC control channel.
package mpv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/infra/deps"
	"github.com/osa030/ytbeats/internal/infra/logger"
	"github.com/osa030/ytbeats/internal/infra/pidfile"
)

// Errors
var (
	ErrEngineUnavailable = errors.New("playback engine is not available")
	ErrConnectTimeout    = errors.New("timed out connecting to playback engine")
	ErrNotConnected      = errors.New("playback engine is not connected")
	ErrCallTimeout       = errors.New("playback engine did not answer")
)

const (
	recordPrefix    = "mpv"
	quitGracePeriod = time.Second

	defaultCallTimeout = 2 * time.Second
)

// Config holds controller configuration.
type Config struct {
	Binary          string        // Player binary or path; "mpv" if empty
	YtdlPath        string        // Extraction helper binary or path; "yt-dlp" if empty
	RuntimeDir      string        // Socket, pid record and process log directory
	ConnectTimeout  time.Duration // Ceiling for the initial connection
	ConnectInterval time.Duration // Poll interval for the initial connection
	GraceWindow     time.Duration // End-of-file events are ignored this long after Play
	CallTimeout     time.Duration // Ceiling for one control channel round trip
	InitialVolume   int           // Volume passed at spawn
}

// Controller owns one player process and its control channel.
type Controller struct {
	mu sync.RWMutex

	cfg     Config
	conn    conn
	address string

	// Process
	cmd     *exec.Cmd
	exited  chan struct{}
	record  *pidfile.Record
	logFile *os.File

	// Playback
	graceDeadline time.Time
	current       string
	volume        int

	// Callbacks
	onTrackEnded func(EndReason)
	onError      func(string)

	// Listener
	stopListener chan struct{}
	dispatchDone chan struct{}

	closed   bool
	quitOnce sync.Once
	now      func() time.Time
}

// New resolves the player, cleans up players left behind by crashed
// instances, spawns a fresh player and connects to it.
// Returns ErrEngineUnavailable if the binary is missing and ErrConnectTimeout
// if the control channel does not come up in time.
func New(ctx context.Context, cfg Config) (*Controller, error) {
	cfg = withDefaults(cfg)

	binary, err := deps.Lookup(cfg.Binary, deps.PlayerFallbacks()...)
	if err != nil {
		return nil, errors.Wrapf(ErrEngineUnavailable, "%v", err)
	}

	ytdl, err := deps.Lookup(cfg.YtdlPath)
	if err != nil {
		zlog.Warn().Msgf("mpv: extraction helper not found, only local files will play: command=%s", cfg.YtdlPath)
		ytdl = ""
	}

	registry := pidfile.New(cfg.RuntimeDir, recordPrefix)
	reapOrphans(registry, cfg.RuntimeDir)

	id := uuid.New().String()
	record, err := registry.Acquire(id)
	if err != nil {
		zlog.Warn().Msgf("mpv: running without pid record: error=%v", err)
		record = nil
	}

	address := channelAddress(cfg.RuntimeDir, id)
	cmd := exec.Command(binary, buildArgs(address, ytdl, cfg.InitialVolume)...)

	logFile, err := logger.ProcessLog(filepath.Join(cfg.RuntimeDir, fmt.Sprintf("%s-%s.log", recordPrefix, id)))
	if err != nil {
		zlog.Warn().Msgf("mpv: player output will be discarded: error=%v", err)
	} else {
		fmt.Fprintf(logFile, "Running command: %s %v\n", binary, cmd.Args[1:])
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		closeQuietly(logFile)
		releaseQuietly(record)
		return nil, errors.Wrapf(ErrEngineUnavailable, "failed to start %s: %v", binary, err)
	}
	zlog.Info().Msgf("mpv: spawned player: pid=%d address=%s", cmd.Process.Pid, address)

	if record != nil {
		if err := record.Write(cmd.Process.Pid, address, filepath.Base(binary)); err != nil {
			zlog.Warn().Msgf("mpv: failed to record player pid: error=%v", err)
		}
	}

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	cn, err := connect(ctx, dialIPC, address, cfg.ConnectInterval, cfg.ConnectTimeout, exited)
	if err != nil {
		_ = cmd.Process.Kill()
		<-exited
		removeChannel(address)
		closeQuietly(logFile)
		releaseQuietly(record)
		return nil, err
	}

	c := newController(cfg, cn)
	c.address = address
	c.cmd = cmd
	c.exited = exited
	c.record = record
	c.logFile = logFile

	// keep the process alive when a stream fails or the playlist runs out
	if err := c.call(cn, func(cn conn) error { return cn.Set("idle", "yes") }); err != nil {
		zlog.Warn().Msgf("mpv: failed to set idle mode: error=%v", err)
	}

	c.subscribe()
	return c, nil
}

// newController wires a controller around an open connection.
func newController(cfg Config, cn conn) *Controller {
	return &Controller{
		cfg:          cfg,
		conn:         cn,
		volume:       clampVolume(cfg.InitialVolume),
		dispatchDone: make(chan struct{}),
		now:          time.Now,
	}
}

// Play loads locator, replacing whatever is playing, and opens the grace window.
func (c *Controller) Play(locator string) error {
	cn := c.liveConn()
	if cn == nil {
		return ErrNotConnected
	}

	c.mu.Lock()
	c.graceDeadline = c.now().Add(c.cfg.GraceWindow)
	c.current = locator
	c.mu.Unlock()

	err := c.call(cn, func(cn conn) error {
		_, err := cn.Call("loadfile", locator, "replace")
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", locator)
	}
	zlog.Debug().Msgf("mpv: loaded: locator=%s", locator)
	return nil
}

// Pause toggles pause. Failures are ignored.
func (c *Controller) Pause() {
	c.bestEffort("pause", func(cn conn) error {
		_, err := cn.Call("cycle", "pause")
		return err
	})
}

// Stop stops playback and leaves the process running. Failures are ignored.
func (c *Controller) Stop() {
	c.bestEffort("stop", func(cn conn) error {
		_, err := cn.Call("stop")
		return err
	})
}

// SetVolume sets the volume, clamped to [0,100]. Failures are ignored.
func (c *Controller) SetVolume(percent int) {
	v := clampVolume(percent)
	if c.bestEffort("set volume", func(cn conn) error {
		return cn.Set("volume", float64(v))
	}) {
		c.mu.Lock()
		c.volume = v
		c.mu.Unlock()
	}
}

// ChangeVolume adjusts the volume by delta, clamped to [0,100], and returns
// the resulting volume. Failures are ignored.
func (c *Controller) ChangeVolume(delta int) int {
	c.mu.RLock()
	current := c.volume
	c.mu.RUnlock()

	var read int
	if c.bestEffort("get volume", func(cn conn) error {
		v, err := cn.Get("volume")
		if err != nil {
			return err
		}
		read = int(toFloat(v) + 0.5)
		return nil
	}) {
		current = read
	}

	target := clampVolume(current + delta)
	c.SetVolume(target)
	return target
}

// Status queries the player. Any failure yields StoppedStatus.
func (c *Controller) Status() Status {
	st := StoppedStatus()

	ok := c.bestEffort("status", func(cn conn) error {
		idle, err := cn.Get("idle-active")
		if err != nil {
			return err
		}
		vol, err := cn.Get("volume")
		if err != nil {
			return err
		}

		s := Status{
			Volume: clampVolume(int(toFloat(vol) + 0.5)),
			Idle:   toBool(idle),
		}
		if s.Idle {
			s.Title = "Stopped"
			st = s
			return nil
		}

		paused, err := cn.Get("pause")
		if err != nil {
			return err
		}
		s.Paused = toBool(paused)

		// these are briefly unavailable while a stream opens
		if v, err := cn.Get("time-pos"); err == nil {
			s.Position = toFloat(v)
		}
		if v, err := cn.Get("duration"); err == nil {
			s.Duration = toFloat(v)
		}
		if v, err := cn.Get("media-title"); err == nil {
			s.Title, _ = v.(string)
		}
		if v, err := cn.Get("metadata"); err == nil {
			md := decodeMetadata(v)
			s.Artist = md.Artist
			if s.Title == "" {
				s.Title = md.Title
			}
		}
		st = s
		return nil
	})
	if !ok {
		return StoppedStatus()
	}
	return st
}

// Quit shuts the player down, removes the control channel's socket file and
// releases the pid record. Safe to call more than once.
func (c *Controller) Quit() {
	c.quitOnce.Do(func() {
		c.mu.Lock()
		cn := c.conn
		c.conn = nil
		c.closed = true
		stop := c.stopListener
		c.mu.Unlock()

		if cn != nil {
			if err := c.call(cn, func(cn conn) error {
				_, err := cn.Call("quit")
				return err
			}); err != nil {
				zlog.Debug().Msgf("mpv: quit command ignored: error=%v", err)
			}
			if stop != nil {
				close(stop)
			}
			_ = cn.Close()
		}

		if c.cmd != nil && c.cmd.Process != nil {
			select {
			case <-c.exited:
			case <-time.After(quitGracePeriod):
				if err := c.cmd.Process.Kill(); err != nil {
					zlog.Debug().Msgf("mpv: kill ignored: error=%v", err)
				}
				<-c.exited
			}
		}

		if c.address != "" {
			removeChannel(c.address)
		}
		releaseQuietly(c.record)
		closeQuietly(c.logFile)
		zlog.Info().Msg("mpv: player stopped")
	})
}

// bestEffort runs fn on the live connection. Failures, timeouts and panics
// are logged at debug level and reported only through the return value.
func (c *Controller) bestEffort(op string, fn func(conn) error) bool {
	cn := c.liveConn()
	if cn == nil {
		zlog.Debug().Msgf("mpv: %s ignored: not connected", op)
		return false
	}

	if err := c.call(cn, fn); err != nil {
		zlog.Debug().Msgf("mpv: %s ignored: error=%v", op, err)
		return false
	}
	return true
}

// call runs fn against cn and gives up after the call timeout or when the
// player exits. mpvipc waits for replies without a deadline, so a reply that
// never comes leaves fn's goroutine parked; the caller is released regardless.
func (c *Controller) call(cn conn, fn func(conn) error) error {
	timeout := c.cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- errors.Newf("panic: %v", r)
			}
		}()
		done <- fn(cn)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return errors.Wrapf(ErrCallTimeout, "no reply after %v", timeout)
	case <-c.exited:
		return errors.Wrap(ErrNotConnected, "player exited")
	}
}

func (c *Controller) liveConn() conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed || c.conn == nil || c.conn.IsClosed() {
		return nil
	}
	return c.conn
}

func buildArgs(address, ytdlPath string, volume int) []string {
	args := []string{
		"--idle=yes",
		"--no-video",
		"--no-terminal",
		"--force-window=no",
		"--osd-level=0",
		"--input-ipc-server=" + address,
		fmt.Sprintf("--volume=%d", clampVolume(volume)),
	}
	if ytdlPath != "" {
		args = append(args, "--script-opts=ytdl_hook-ytdl_path="+ytdlPath)
	}
	return args
}

func withDefaults(cfg Config) Config {
	if cfg.Binary == "" {
		cfg.Binary = deps.CommandPlayer
	}
	if cfg.YtdlPath == "" {
		cfg.YtdlPath = deps.CommandRetriever
	}
	if cfg.RuntimeDir == "" {
		cfg.RuntimeDir = filepath.Join(os.TempDir(), "ytbeats")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 3 * time.Second
	}
	if cfg.ConnectInterval <= 0 {
		cfg.ConnectInterval = 100 * time.Millisecond
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	return cfg
}

// reapOrphans terminates players spawned by instances that are gone.
func reapOrphans(registry *pidfile.Registry, dir string) {
	orphans, err := registry.Reap()
	if err != nil {
		zlog.Warn().Msgf("mpv: orphan cleanup failed: error=%v", err)
		return
	}
	for _, o := range orphans {
		zlog.Info().Msgf("mpv: cleaned up orphaned player: id=%s pid=%d killed=%t", o.ID, o.PID, o.Killed)
		removeChannel(channelAddress(dir, o.ID))
		_ = os.Remove(filepath.Join(dir, fmt.Sprintf("%s-%s.log", recordPrefix, o.ID)))
	}
}

func removeChannel(address string) {
	if isPipe(address) {
		return
	}
	if err := os.Remove(address); err != nil && !os.IsNotExist(err) {
		zlog.Debug().Msgf("mpv: failed to remove socket: path=%s error=%v", address, err)
	}
}

func closeQuietly(f *os.File) {
	if f != nil {
		_ = f.Close()
	}
}

func releaseQuietly(rec *pidfile.Record) {
	if rec == nil {
		return
	}
	if err := rec.Release(); err != nil {
		zlog.Debug().Msgf("mpv: failed to release pid record: error=%v", err)
	}
}
