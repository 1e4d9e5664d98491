package connect

import (
	"context"
	"sync"
	"time"

	"connectrpc.com/connect"

	"github.com/osa030/ytbeats/internal/api/apiv1"
	"github.com/osa030/ytbeats/internal/api/apiv1/apiv1connect"
	"github.com/osa030/ytbeats/internal/app/download"
	"github.com/osa030/ytbeats/internal/app/session"
)

// DownloadService implements the DownloadService RPC.
type DownloadService struct {
	session *session.Manager
}

// NewDownloadService creates a new DownloadService.
func NewDownloadService(session *session.Manager) *DownloadService {
	return &DownloadService{session: session}
}

// Ensure DownloadService implements the interface.
var _ apiv1connect.DownloadServiceHandler = (*DownloadService)(nil)

// Add queues a download.
func (s *DownloadService) Add(
	ctx context.Context,
	req *connect.Request[apiv1.AddDownloadRequest],
) (*connect.Response[apiv1.AddDownloadResponse], error) {
	snap, err := s.session.AddDownload(ctx, download.Request{
		Locator: req.Msg.Locator,
		Title:   req.Msg.Title,
		Group:   req.Msg.Group,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&apiv1.AddDownloadResponse{Task: apiv1.FromSnapshot(snap)}), nil
}

// List returns all download tasks.
func (s *DownloadService) List(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
) (*connect.Response[apiv1.ListDownloadsResponse], error) {
	snaps := s.session.Downloads()
	tasks := make([]apiv1.DownloadTask, len(snaps))
	for i, snap := range snaps {
		tasks[i] = apiv1.FromSnapshot(snap)
	}
	return connect.NewResponse(&apiv1.ListDownloadsResponse{Tasks: tasks}), nil
}

// Library lists downloaded files.
func (s *DownloadService) Library(
	ctx context.Context,
	req *connect.Request[apiv1.LibraryRequest],
) (*connect.Response[apiv1.LibraryResponse], error) {
	entries, err := s.session.Library(req.Msg.Group)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]apiv1.LibraryEntry, len(entries))
	for i, e := range entries {
		out[i] = apiv1.LibraryEntry{
			Path:      e.Path,
			Group:     e.Group,
			Title:     e.Title,
			ContentID: e.ContentID,
			Size:      e.Size,
			ModTime:   e.ModTime,
		}
	}
	return connect.NewResponse(&apiv1.LibraryResponse{Entries: out}), nil
}

// Watch streams notifications, starting with the current state.
func (s *DownloadService) Watch(
	ctx context.Context,
	req *connect.Request[apiv1.Empty],
	stream *connect.ServerStream[apiv1.Notification],
) error {
	notifManager := s.session.GetNotificationManager()

	initial := &apiv1.Notification{
		Type:       apiv1.NotificationInitialState,
		SequenceNo: notifManager.NextSequenceNo(),
		Time:       time.Now(),
		Status:     s.session.Status(ctx),
	}
	if err := stream.Send(initial); err != nil {
		return err
	}

	adapter := &notificationStreamAdapter{stream: stream}
	subscriptionID := notifManager.Subscribe(adapter)
	defer notifManager.Unsubscribe(subscriptionID)

	// Wait for context cancellation or session end
	select {
	case <-ctx.Done():
	case <-s.session.Done():
	}
	return nil
}

// notificationStreamAdapter adapts connect.ServerStream to notification.Stream.
// Broadcasts may overlap, so sends are serialized.
type notificationStreamAdapter struct {
	mu     sync.Mutex
	stream *connect.ServerStream[apiv1.Notification]
}

func (a *notificationStreamAdapter) Send(n *apiv1.Notification) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stream.Send(n)
}
