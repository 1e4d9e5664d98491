package apiv1connect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/osa030/ytbeats/internal/api/apiv1"
)

// PlayerServiceName is the fully-qualified name of the PlayerService service.
const PlayerServiceName = "ytbeats.v1.PlayerService"

// PlayerService procedure paths.
const (
	PlayerServiceStatusProcedure       = "/ytbeats.v1.PlayerService/Status"
	PlayerServiceQueueProcedure        = "/ytbeats.v1.PlayerService/Queue"
	PlayerServicePlayProcedure         = "/ytbeats.v1.PlayerService/Play"
	PlayerServiceEnqueueProcedure      = "/ytbeats.v1.PlayerService/Enqueue"
	PlayerServicePlayAllProcedure      = "/ytbeats.v1.PlayerService/PlayAll"
	PlayerServiceNextProcedure         = "/ytbeats.v1.PlayerService/Next"
	PlayerServicePreviousProcedure     = "/ytbeats.v1.PlayerService/Previous"
	PlayerServicePauseProcedure        = "/ytbeats.v1.PlayerService/Pause"
	PlayerServiceStopProcedure         = "/ytbeats.v1.PlayerService/Stop"
	PlayerServiceClearProcedure        = "/ytbeats.v1.PlayerService/Clear"
	PlayerServiceSetVolumeProcedure    = "/ytbeats.v1.PlayerService/SetVolume"
	PlayerServiceChangeVolumeProcedure = "/ytbeats.v1.PlayerService/ChangeVolume"
	PlayerServiceSearchProcedure       = "/ytbeats.v1.PlayerService/Search"
)

// PlayerServiceHandler is implemented by the PlayerService server.
type PlayerServiceHandler interface {
	Status(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.PlayerStatus], error)
	Queue(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.QueueResponse], error)
	Play(context.Context, *connect.Request[apiv1.InputRequest]) (*connect.Response[apiv1.TracksResponse], error)
	Enqueue(context.Context, *connect.Request[apiv1.InputRequest]) (*connect.Response[apiv1.TracksResponse], error)
	PlayAll(context.Context, *connect.Request[apiv1.PlayAllRequest]) (*connect.Response[apiv1.TracksResponse], error)
	Next(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error)
	Previous(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error)
	Pause(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error)
	Stop(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error)
	Clear(context.Context, *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error)
	SetVolume(context.Context, *connect.Request[apiv1.SetVolumeRequest]) (*connect.Response[apiv1.VolumeResponse], error)
	ChangeVolume(context.Context, *connect.Request[apiv1.ChangeVolumeRequest]) (*connect.Response[apiv1.VolumeResponse], error)
	Search(context.Context, *connect.Request[apiv1.SearchRequest]) (*connect.Response[apiv1.SearchResponse], error)
}

// NewPlayerServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewPlayerServiceHandler(svc PlayerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{WithJSON()}, opts...)

	handlers := map[string]http.Handler{
		PlayerServiceStatusProcedure:       connect.NewUnaryHandler(PlayerServiceStatusProcedure, svc.Status, opts...),
		PlayerServiceQueueProcedure:        connect.NewUnaryHandler(PlayerServiceQueueProcedure, svc.Queue, opts...),
		PlayerServicePlayProcedure:         connect.NewUnaryHandler(PlayerServicePlayProcedure, svc.Play, opts...),
		PlayerServiceEnqueueProcedure:      connect.NewUnaryHandler(PlayerServiceEnqueueProcedure, svc.Enqueue, opts...),
		PlayerServicePlayAllProcedure:      connect.NewUnaryHandler(PlayerServicePlayAllProcedure, svc.PlayAll, opts...),
		PlayerServiceNextProcedure:         connect.NewUnaryHandler(PlayerServiceNextProcedure, svc.Next, opts...),
		PlayerServicePreviousProcedure:     connect.NewUnaryHandler(PlayerServicePreviousProcedure, svc.Previous, opts...),
		PlayerServicePauseProcedure:        connect.NewUnaryHandler(PlayerServicePauseProcedure, svc.Pause, opts...),
		PlayerServiceStopProcedure:         connect.NewUnaryHandler(PlayerServiceStopProcedure, svc.Stop, opts...),
		PlayerServiceClearProcedure:        connect.NewUnaryHandler(PlayerServiceClearProcedure, svc.Clear, opts...),
		PlayerServiceSetVolumeProcedure:    connect.NewUnaryHandler(PlayerServiceSetVolumeProcedure, svc.SetVolume, opts...),
		PlayerServiceChangeVolumeProcedure: connect.NewUnaryHandler(PlayerServiceChangeVolumeProcedure, svc.ChangeVolume, opts...),
		PlayerServiceSearchProcedure:       connect.NewUnaryHandler(PlayerServiceSearchProcedure, svc.Search, opts...),
	}
	return "/" + PlayerServiceName + "/", route(handlers)
}

// PlayerServiceClient is a client for the PlayerService service.
type PlayerServiceClient struct {
	status       *connect.Client[apiv1.Empty, apiv1.PlayerStatus]
	queue        *connect.Client[apiv1.Empty, apiv1.QueueResponse]
	play         *connect.Client[apiv1.InputRequest, apiv1.TracksResponse]
	enqueue      *connect.Client[apiv1.InputRequest, apiv1.TracksResponse]
	playAll      *connect.Client[apiv1.PlayAllRequest, apiv1.TracksResponse]
	next         *connect.Client[apiv1.Empty, apiv1.Empty]
	previous     *connect.Client[apiv1.Empty, apiv1.Empty]
	pause        *connect.Client[apiv1.Empty, apiv1.Empty]
	stop         *connect.Client[apiv1.Empty, apiv1.Empty]
	clear        *connect.Client[apiv1.Empty, apiv1.Empty]
	setVolume    *connect.Client[apiv1.SetVolumeRequest, apiv1.VolumeResponse]
	changeVolume *connect.Client[apiv1.ChangeVolumeRequest, apiv1.VolumeResponse]
	search       *connect.Client[apiv1.SearchRequest, apiv1.SearchResponse]
}

// NewPlayerServiceClient constructs a client for the PlayerService service.
func NewPlayerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PlayerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{WithJSON()}, opts...)

	return &PlayerServiceClient{
		status:       connect.NewClient[apiv1.Empty, apiv1.PlayerStatus](httpClient, baseURL+PlayerServiceStatusProcedure, opts...),
		queue:        connect.NewClient[apiv1.Empty, apiv1.QueueResponse](httpClient, baseURL+PlayerServiceQueueProcedure, opts...),
		play:         connect.NewClient[apiv1.InputRequest, apiv1.TracksResponse](httpClient, baseURL+PlayerServicePlayProcedure, opts...),
		enqueue:      connect.NewClient[apiv1.InputRequest, apiv1.TracksResponse](httpClient, baseURL+PlayerServiceEnqueueProcedure, opts...),
		playAll:      connect.NewClient[apiv1.PlayAllRequest, apiv1.TracksResponse](httpClient, baseURL+PlayerServicePlayAllProcedure, opts...),
		next:         connect.NewClient[apiv1.Empty, apiv1.Empty](httpClient, baseURL+PlayerServiceNextProcedure, opts...),
		previous:     connect.NewClient[apiv1.Empty, apiv1.Empty](httpClient, baseURL+PlayerServicePreviousProcedure, opts...),
		pause:        connect.NewClient[apiv1.Empty, apiv1.Empty](httpClient, baseURL+PlayerServicePauseProcedure, opts...),
		stop:         connect.NewClient[apiv1.Empty, apiv1.Empty](httpClient, baseURL+PlayerServiceStopProcedure, opts...),
		clear:        connect.NewClient[apiv1.Empty, apiv1.Empty](httpClient, baseURL+PlayerServiceClearProcedure, opts...),
		setVolume:    connect.NewClient[apiv1.SetVolumeRequest, apiv1.VolumeResponse](httpClient, baseURL+PlayerServiceSetVolumeProcedure, opts...),
		changeVolume: connect.NewClient[apiv1.ChangeVolumeRequest, apiv1.VolumeResponse](httpClient, baseURL+PlayerServiceChangeVolumeProcedure, opts...),
		search:       connect.NewClient[apiv1.SearchRequest, apiv1.SearchResponse](httpClient, baseURL+PlayerServiceSearchProcedure, opts...),
	}
}

// Status calls ytbeats.v1.PlayerService.Status.
func (c *PlayerServiceClient) Status(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.PlayerStatus], error) {
	return c.status.CallUnary(ctx, req)
}

// Queue calls ytbeats.v1.PlayerService.Queue.
func (c *PlayerServiceClient) Queue(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.QueueResponse], error) {
	return c.queue.CallUnary(ctx, req)
}

// Play calls ytbeats.v1.PlayerService.Play.
func (c *PlayerServiceClient) Play(ctx context.Context, req *connect.Request[apiv1.InputRequest]) (*connect.Response[apiv1.TracksResponse], error) {
	return c.play.CallUnary(ctx, req)
}

// Enqueue calls ytbeats.v1.PlayerService.Enqueue.
func (c *PlayerServiceClient) Enqueue(ctx context.Context, req *connect.Request[apiv1.InputRequest]) (*connect.Response[apiv1.TracksResponse], error) {
	return c.enqueue.CallUnary(ctx, req)
}

// PlayAll calls ytbeats.v1.PlayerService.PlayAll.
func (c *PlayerServiceClient) PlayAll(ctx context.Context, req *connect.Request[apiv1.PlayAllRequest]) (*connect.Response[apiv1.TracksResponse], error) {
	return c.playAll.CallUnary(ctx, req)
}

// Next calls ytbeats.v1.PlayerService.Next.
func (c *PlayerServiceClient) Next(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error) {
	return c.next.CallUnary(ctx, req)
}

// Previous calls ytbeats.v1.PlayerService.Previous.
func (c *PlayerServiceClient) Previous(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error) {
	return c.previous.CallUnary(ctx, req)
}

// Pause calls ytbeats.v1.PlayerService.Pause.
func (c *PlayerServiceClient) Pause(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error) {
	return c.pause.CallUnary(ctx, req)
}

// Stop calls ytbeats.v1.PlayerService.Stop.
func (c *PlayerServiceClient) Stop(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error) {
	return c.stop.CallUnary(ctx, req)
}

// Clear calls ytbeats.v1.PlayerService.Clear.
func (c *PlayerServiceClient) Clear(ctx context.Context, req *connect.Request[apiv1.Empty]) (*connect.Response[apiv1.Empty], error) {
	return c.clear.CallUnary(ctx, req)
}

// SetVolume calls ytbeats.v1.PlayerService.SetVolume.
func (c *PlayerServiceClient) SetVolume(ctx context.Context, req *connect.Request[apiv1.SetVolumeRequest]) (*connect.Response[apiv1.VolumeResponse], error) {
	return c.setVolume.CallUnary(ctx, req)
}

// ChangeVolume calls ytbeats.v1.PlayerService.ChangeVolume.
func (c *PlayerServiceClient) ChangeVolume(ctx context.Context, req *connect.Request[apiv1.ChangeVolumeRequest]) (*connect.Response[apiv1.VolumeResponse], error) {
	return c.changeVolume.CallUnary(ctx, req)
}

// Search calls ytbeats.v1.PlayerService.Search.
func (c *PlayerServiceClient) Search(ctx context.Context, req *connect.Request[apiv1.SearchRequest]) (*connect.Response[apiv1.SearchResponse], error) {
	return c.search.CallUnary(ctx, req)
}

// route dispatches on the exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
