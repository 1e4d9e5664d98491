// Package session provides the session manager.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/ytbeats/internal/api/apiv1"
	"github.com/osa030/ytbeats/internal/app/download"
	"github.com/osa030/ytbeats/internal/app/filter"
	"github.com/osa030/ytbeats/internal/app/library"
	"github.com/osa030/ytbeats/internal/app/notification"
	"github.com/osa030/ytbeats/internal/app/playback"
	"github.com/osa030/ytbeats/internal/app/resolve"
	"github.com/osa030/ytbeats/internal/app/session/state"
	model "github.com/osa030/ytbeats/internal/domain/download"
	"github.com/osa030/ytbeats/internal/domain/track"
	"github.com/osa030/ytbeats/internal/infra/config"
	"github.com/osa030/ytbeats/internal/infra/mpv"
)

var (
	ErrSessionNotRunning   = errors.New("session is not running")
	ErrPlaybackUnavailable = errors.New("playback is unavailable")
	ErrSearchUnavailable   = errors.New("catalog search is not configured")
	ErrLibraryEmpty        = errors.New("no local tracks found")
)

// Player is the playback engine the session drives.
type Player interface {
	Play(locator string) error
	Stop()
	Pause()
	SetVolume(percent int)
	ChangeVolume(delta int) int
	Status() mpv.Status
	OnTrackEnded(fn func(mpv.EndReason))
	OnError(fn func(message string))
	Quit()
}

// Catalog searches and resolves remote collections.
type Catalog interface {
	resolve.Searcher
	resolve.CollectionClient
}

// Deps holds the externally constructed collaborators.
type Deps struct {
	Player         Player // nil when the engine failed to start
	PlayerErr      error  // why Player is nil
	Catalog        Catalog
	Fetcher        download.Fetcher
	ConverterProbe func() bool
}

// Manager manages the ytbeats session.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config *config.Config

	// Components
	stateMgr     *state.Manager
	player       Player
	playerErr    error
	queue        *playback.Queue
	pipeline     *download.Pipeline
	resolver     *resolve.Chain
	scanner      *library.Scanner
	catalog      Catalog
	notification *notification.Manager

	// Download completion observers
	completedHooks []func(model.Snapshot)

	// Stamps play commands for the status poller
	tracker *playTracker

	// Channels
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewManager creates a new session manager.
func NewManager(cfg *config.Config, deps Deps) (*Manager, error) {
	if deps.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	// Typed nil must not reach the resolver factory
	var src resolve.Sources
	if deps.Catalog != nil {
		src = resolve.Sources{Collections: deps.Catalog, Search: deps.Catalog}
	}
	resolver, err := resolve.NewChainFromConfig(cfg.Resolvers, src)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolver chain")
	}

	scanner := library.NewScanner(cfg.Downloads.Dir)

	m := &Manager{
		config:    cfg,
		stateMgr:  state.New(uuid.New().String()),
		player:    deps.Player,
		playerErr: deps.PlayerErr,
		pipeline: download.NewPipeline(download.Config{
			Dir:            cfg.Downloads.Dir,
			PollInterval:   cfg.Downloads.PollInterval(),
			ProgressRate:   cfg.Downloads.ProgressRateHz,
			Timeout:        cfg.Downloads.Timeout(),
			ConverterProbe: deps.ConverterProbe,
		}, deps.Fetcher, filter.NewDuplicateContentFilter(scanner)),
		resolver:     resolver,
		scanner:      scanner,
		catalog:      deps.Catalog,
		notification: notification.NewManager(),
		done:         make(chan struct{}),
	}

	if m.player != nil {
		m.tracker = newPlayTracker(m.player)
		m.queue = playback.NewQueue(m.tracker)
	} else if m.playerErr == nil {
		m.playerErr = mpv.ErrEngineUnavailable
	}

	m.pipeline.OnProgress(m.onDownloadProgress)
	m.pipeline.OnComplete(m.onDownloadComplete)

	return m, nil
}

// Start starts the session components. Without a player the session runs
// degraded: downloads and search work, playback operations fail.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return errors.New("session already started")
	}
	m.started = true

	ctx, m.cancel = context.WithCancel(ctx)
	go m.pipeline.Run(ctx)

	sessionID := m.stateMgr.GetSessionID()
	if m.queue == nil {
		m.stateMgr.Degrade(m.playerErr)
		zlog.Error().Msgf("playback engine unavailable, running degraded: session_id=%s error=%v", sessionID, m.playerErr)
		return nil
	}

	m.player.OnTrackEnded(func(reason mpv.EndReason) {
		m.queue.TrackEnded(playback.EndReason(reason))
	})
	m.player.OnError(m.onPlayerError)

	go m.queue.Run(ctx)
	go m.playbackLoop(ctx)
	go m.statusPoller(ctx)

	m.stateMgr.SetPhase(state.PhaseActive)
	zlog.Info().Msgf("phase changed: phase=ACTIVE session_id=%s", sessionID)
	return nil
}

// Done returns a channel that is closed when the session ends.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Close quits the player and stops every component. In-flight downloads are
// abandoned. Safe to call more than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		if m.cancel != nil {
			m.cancel()
		}
		m.mu.Unlock()

		if m.player != nil {
			m.player.Quit()
		}
		m.notification.Close()
		m.stateMgr.SetPhase(state.PhaseTerminated)
		close(m.done)
		zlog.Info().Msgf("phase changed: phase=TERMINATED session_id=%s", m.stateMgr.GetSessionID())
	})
}

// GetPhase returns the session phase.
func (m *Manager) GetPhase() state.Phase {
	return m.stateMgr.GetPhase()
}

// GetNotificationManager returns the notification manager.
func (m *Manager) GetNotificationManager() *notification.Manager {
	return m.notification
}

// OnDownloadCompleted registers an observer for finished downloads,
// successful or not. Observers run on the pipeline's dispatcher goroutine.
func (m *Manager) OnDownloadCompleted(fn func(model.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completedHooks = append(m.completedHooks, fn)
}

// Status returns the player and queue status. It never fails: an unavailable
// or unresponsive player reports the stopped defaults.
func (m *Manager) Status(ctx context.Context) *apiv1.PlayerStatus {
	out := &apiv1.PlayerStatus{
		Phase:      m.stateMgr.GetPhase().String(),
		QueueState: playback.StateEmpty.String(),
		Current:    -1,
	}

	if m.queue == nil {
		if reason := m.stateMgr.GetReason(); reason != nil {
			out.Error = reason.Error()
		} else if m.playerErr != nil {
			out.Error = m.playerErr.Error()
		}
		fillPlayerStatus(out, mpv.StoppedStatus())
		return out
	}

	out.Available = true
	fillPlayerStatus(out, m.player.Status())

	if snap, err := m.queue.Snapshot(ctx); err == nil {
		out.QueueState = snap.State.String()
		out.QueueLength = len(snap.Items)
		out.Current = snap.Current
	} else {
		zlog.Debug().Msgf("session: queue snapshot failed: %v", err)
	}
	return out
}

// Queue returns a copy of the playback queue.
func (m *Manager) Queue(ctx context.Context) (playback.Snapshot, error) {
	if err := m.checkPlayback(); err != nil {
		return playback.Snapshot{Current: -1}, err
	}
	return m.queue.Snapshot(ctx)
}

// Play resolves input and replaces the queue with the result.
func (m *Manager) Play(ctx context.Context, input string) ([]track.Track, error) {
	if err := m.checkPlayback(); err != nil {
		return nil, err
	}
	tracks, err := m.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	zlog.Info().Msgf("play: input=%q tracks=%d", input, len(tracks))
	return tracks, m.queue.ReplaceAll(ctx, tracks)
}

// Enqueue resolves input and appends the result to the queue.
func (m *Manager) Enqueue(ctx context.Context, input string) ([]track.Track, error) {
	if err := m.checkPlayback(); err != nil {
		return nil, err
	}
	tracks, err := m.resolver.Resolve(ctx, input)
	if err != nil {
		return nil, err
	}
	zlog.Info().Msgf("enqueue: input=%q tracks=%d", input, len(tracks))
	return tracks, m.queue.Enqueue(ctx, tracks...)
}

// PlayAll replaces the queue with the local library, or one group of it.
func (m *Manager) PlayAll(ctx context.Context, group string) ([]track.Track, error) {
	if err := m.checkPlayback(); err != nil {
		return nil, err
	}
	entries, err := m.Library(group)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.Wrapf(ErrLibraryEmpty, "dir=%s group=%q", m.scanner.Dir(), group)
	}

	tracks := make([]track.Track, len(entries))
	for i, e := range entries {
		tracks[i] = e.Track()
	}
	zlog.Info().Msgf("play all: group=%q tracks=%d", group, len(tracks))
	return tracks, m.queue.ReplaceAll(ctx, tracks)
}

// Next skips to the next track.
func (m *Manager) Next(ctx context.Context) error {
	if err := m.checkPlayback(); err != nil {
		return err
	}
	return m.queue.Next(ctx)
}

// Previous goes back to the previous track.
func (m *Manager) Previous(ctx context.Context) error {
	if err := m.checkPlayback(); err != nil {
		return err
	}
	return m.queue.Previous(ctx)
}

// Clear empties the queue and stops playback.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.checkPlayback(); err != nil {
		return err
	}
	return m.queue.Clear(ctx)
}

// Pause toggles pause.
func (m *Manager) Pause() error {
	if err := m.checkPlayback(); err != nil {
		return err
	}
	m.player.Pause()
	return nil
}

// Stop stops the transport and keeps the queue.
func (m *Manager) Stop() error {
	if err := m.checkPlayback(); err != nil {
		return err
	}
	m.player.Stop()
	m.queue.ObserveStopped(true)
	return nil
}

// SetVolume sets the absolute volume and returns the clamped value.
func (m *Manager) SetVolume(percent int) (int, error) {
	if err := m.checkPlayback(); err != nil {
		return 0, err
	}
	m.player.SetVolume(percent)
	return clampPercent(percent), nil
}

// ChangeVolume changes the volume by delta and returns the new value.
func (m *Manager) ChangeVolume(delta int) (int, error) {
	if err := m.checkPlayback(); err != nil {
		return 0, err
	}
	return m.player.ChangeVolume(delta), nil
}

// Search queries the catalog. A non-positive limit uses the configured default.
func (m *Manager) Search(ctx context.Context, query string, limit int) ([]track.Record, error) {
	if m.catalog == nil {
		return nil, ErrSearchUnavailable
	}
	if limit <= 0 || limit > m.config.Search.Limit {
		limit = m.config.Search.Limit
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Search.Timeout())
	defer cancel()

	return m.catalog.Search(ctx, strings.TrimSpace(query), limit)
}

// AddDownload queues a download.
func (m *Manager) AddDownload(ctx context.Context, req download.Request) (model.Snapshot, error) {
	if !m.stateMgr.IsRunning() {
		return model.Snapshot{}, ErrSessionNotRunning
	}
	task, err := m.pipeline.Add(ctx, req)
	if err != nil {
		return model.Snapshot{}, err
	}
	return task.Snapshot(), nil
}

// Downloads returns all download tasks in insertion order.
func (m *Manager) Downloads() []model.Snapshot {
	return m.pipeline.Tasks()
}

// Library lists the downloaded files, or one group of them.
func (m *Manager) Library(group string) ([]library.Entry, error) {
	entries, err := m.scanner.Scan()
	if err != nil {
		return nil, err
	}
	group = strings.Trim(strings.TrimSpace(group), "/")
	if group == "" {
		return entries, nil
	}

	filtered := make([]library.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Group == group || strings.HasPrefix(e.Group, group+"/") {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// checkPlayback returns ErrPlaybackUnavailable wrapping the engine init
// error when the session runs degraded.
func (m *Manager) checkPlayback() error {
	if m.queue == nil {
		return errors.Mark(errors.Wrap(m.playerErr, "playback unavailable"), ErrPlaybackUnavailable)
	}
	if !m.stateMgr.IsRunning() {
		return ErrSessionNotRunning
	}
	return nil
}

// playbackLoop forwards queue events to subscribers.
func (m *Manager) playbackLoop(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().Msgf("playback loop panicked: %v", r)
			// Restart loop so events keep flowing
			zlog.Info().Msg("restarting playback loop")
			go m.playbackLoop(ctx)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-m.queue.Events():
			m.handlePlaybackEvent(event)
		}
	}
}

// handlePlaybackEvent handles playback events.
func (m *Manager) handlePlaybackEvent(event playback.Event) {
	zlog.Debug().Msgf("playback event: type=%s index=%d", event.Type, event.Index)

	n := &apiv1.Notification{Index: event.Index, Message: event.Message}
	if event.Track != nil {
		t := apiv1.FromTrack(*event.Track)
		n.Track = &t
	}

	switch event.Type {
	case playback.EventTrackStarted:
		n.Type = apiv1.NotificationTrackStarted
	case playback.EventTrackFailed:
		n.Type = apiv1.NotificationTrackFailed
	case playback.EventQueueEnded:
		n.Type = apiv1.NotificationQueueEnded
	case playback.EventQueueCleared:
		n.Type = apiv1.NotificationQueueCleared
	default:
		return
	}
	m.notification.Broadcast(n)
}

// statusPoller feeds the transport's stopped state into the queue. Idle
// readings right after a play command are skipped while the engine loads.
func (m *Manager) statusPoller(ctx context.Context) {
	ticker := time.NewTicker(m.config.Player.StatusPoll())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gen := m.tracker.generation()
			st := m.player.Status()
			if st.Stopped() && m.tracker.loading(gen, m.config.Player.GraceWindow()) {
				continue
			}
			m.queue.ObserveStopped(st.Stopped())
			if st.Stopped() && m.tracker.generation() != gen {
				// a play landed after the check; its reset wins
				m.queue.ObserveStopped(false)
			}
		}
	}
}

func (m *Manager) onPlayerError(message string) {
	m.notification.Broadcast(&apiv1.Notification{
		Type:    apiv1.NotificationPlayerError,
		Message: message,
	})
}

func (m *Manager) onDownloadProgress(s model.Snapshot) {
	task := apiv1.FromSnapshot(s)
	m.notification.Broadcast(&apiv1.Notification{
		Type:     apiv1.NotificationDownloadProgress,
		Download: &task,
	})
}

func (m *Manager) onDownloadComplete(s model.Snapshot) {
	task := apiv1.FromSnapshot(s)
	n := &apiv1.Notification{Type: apiv1.NotificationDownloadCompleted, Download: &task}
	if s.Status == model.StatusFailed {
		n.Type = apiv1.NotificationDownloadFailed
		n.Message = s.Error
		zlog.Warn().Msgf("download failed: id=%s locator=%s error=%s", s.ID, s.Locator, s.Error)
	} else {
		zlog.Info().Msgf("download completed: id=%s path=%s", s.ID, s.FinalPath)
	}
	m.notification.Broadcast(n)

	m.mu.RLock()
	hooks := append([]func(model.Snapshot)(nil), m.completedHooks...)
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(s)
	}
}

func fillPlayerStatus(out *apiv1.PlayerStatus, st mpv.Status) {
	out.Paused = st.Paused
	out.Idle = st.Idle
	out.PositionSec = st.Position
	out.DurationSec = st.Duration
	out.Title = st.Title
	out.Artist = st.Artist
	out.Volume = st.Volume
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
