package connect

import (
	"context"

	"connectrpc.com/connect"

	"github.com/osa030/ytbeats/internal/api/apiv1"
	"github.com/osa030/ytbeats/internal/api/apiv1/apiv1connect"
	"github.com/osa030/ytbeats/internal/app/playback"
	"github.com/osa030/ytbeats/internal/app/session"
	"github.com/osa030/ytbeats/internal/domain/track"
)

// PlayerService implements the PlayerService RPC.
type PlayerService struct {
	session *session.Manager
}

// NewPlayerService creates a new PlayerService.
func NewPlayerService(session *session.Manager) *PlayerService {
	return &PlayerService{session: session}
}

// Ensure PlayerService implements the interface.
var _ apiv1connect.PlayerServiceHandler = (*PlayerService)(nil)

// Status returns the player and queue status.
func (s *PlayerService) Status(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.PlayerStatus], error) {
	return connect.NewResponse(s.session.Status(ctx)), nil
}

// Queue returns the playback queue.
func (s *PlayerService) Queue(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.QueueResponse], error) {
	snap, err := s.session.Queue(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(queueResponse(snap)), nil
}

// Play replaces the queue with the resolved input.
func (s *PlayerService) Play(
	ctx context.Context,
	req *connect.Request[apiv1.InputRequest],
) (*connect.Response[apiv1.TracksResponse], error) {
	tracks, err := s.session.Play(ctx, req.Msg.Input)
	return tracksResponse(tracks, err)
}

// Enqueue appends the resolved input to the queue.
func (s *PlayerService) Enqueue(
	ctx context.Context,
	req *connect.Request[apiv1.InputRequest],
) (*connect.Response[apiv1.TracksResponse], error) {
	tracks, err := s.session.Enqueue(ctx, req.Msg.Input)
	return tracksResponse(tracks, err)
}

// PlayAll replaces the queue with the local library.
func (s *PlayerService) PlayAll(
	ctx context.Context,
	req *connect.Request[apiv1.PlayAllRequest],
) (*connect.Response[apiv1.TracksResponse], error) {
	tracks, err := s.session.PlayAll(ctx, req.Msg.Group)
	return tracksResponse(tracks, err)
}

// Next skips to the next track.
func (s *PlayerService) Next(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.Empty], error) {
	return empty(s.session.Next(ctx))
}

// Previous goes back to the previous track.
func (s *PlayerService) Previous(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.Empty], error) {
	return empty(s.session.Previous(ctx))
}

// Pause toggles pause.
func (s *PlayerService) Pause(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.Empty], error) {
	return empty(s.session.Pause())
}

// Stop stops playback.
func (s *PlayerService) Stop(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.Empty], error) {
	return empty(s.session.Stop())
}

// Clear empties the queue.
func (s *PlayerService) Clear(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.Empty], error) {
	return empty(s.session.Clear(ctx))
}

// SetVolume sets the absolute volume.
func (s *PlayerService) SetVolume(
	ctx context.Context,
	req *connect.Request[apiv1.SetVolumeRequest],
) (*connect.Response[apiv1.VolumeResponse], error) {
	v, err := s.session.SetVolume(req.Msg.Volume)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.VolumeResponse{Volume: v}), nil
}

// ChangeVolume changes the volume relatively.
func (s *PlayerService) ChangeVolume(
	ctx context.Context,
	req *connect.Request[apiv1.ChangeVolumeRequest],
) (*connect.Response[apiv1.VolumeResponse], error) {
	v, err := s.session.ChangeVolume(req.Msg.Delta)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.VolumeResponse{Volume: v}), nil
}

// Search queries the catalog.
func (s *PlayerService) Search(
	ctx context.Context,
	req *connect.Request[apiv1.SearchRequest],
) (*connect.Response[apiv1.SearchResponse], error) {
	if req.Msg.Query == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, nil)
	}
	records, err := s.session.Search(ctx, req.Msg.Query, req.Msg.Limit)
	if err != nil {
		return nil, toConnectError(err)
	}

	results := make([]apiv1.Record, len(records))
	for i, r := range records {
		results[i] = apiv1.FromRecord(r)
	}
	return connect.NewResponse(&apiv1.SearchResponse{Results: results}), nil
}

func queueResponse(snap playback.Snapshot) *apiv1.QueueResponse {
	items := make([]apiv1.QueueItem, len(snap.Items))
	for i, it := range snap.Items {
		items[i] = apiv1.QueueItem{
			Index:  i,
			Track:  apiv1.FromTrack(it.Track),
			Status: it.Status.String(),
		}
	}
	return &apiv1.QueueResponse{
		Items:   items,
		Current: snap.Current,
		State:   snap.State.String(),
	}
}

func tracksResponse(tracks []track.Track, err error) (*connect.Response[apiv1.TracksResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.TracksResponse{Tracks: apiv1.FromTracks(tracks)}), nil
}

func empty(err error) (*connect.Response[apiv1.Empty], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.Empty{}), nil
}
